package catalogfilter

import (
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

type Degree string

const (
	DegreeAny       Degree = ""
	DegreeMaster    Degree = "master"
	DegreeBachelor  Degree = "bachelor"
	DegreeDoctorate Degree = "doctorate"
	DegreeMBA       Degree = "mba"
)

var (
	masterTokens   = map[string]bool{"ms": true, "msc": true, "m.sc": true, "m.s": true, "m.s.": true, "meng": true, "ma": true, "mtech": true}
	bachelorTokens = map[string]bool{"bs": true, "bsc": true, "b.sc": true, "b.s": true, "b.s.": true, "ba": true, "beng": true, "btech": true}
)

// DegreeOf maps free text such as "MS", "Master's" or "PhD" to a degree
// family. Text that names no known family yields DegreeAny.
func DegreeOf(raw string) Degree {
	s := norm(raw)
	if s == "" {
		return DegreeAny
	}
	switch {
	case strings.Contains(s, "mba"):
		return DegreeMBA
	case strings.Contains(s, "phd") || strings.Contains(s, "doctor"):
		return DegreeDoctorate
	case strings.Contains(s, "master") || hasToken(s, masterTokens):
		return DegreeMaster
	case strings.Contains(s, "bachelor") || strings.Contains(s, "undergrad") || hasToken(s, bachelorTokens):
		return DegreeBachelor
	}
	return DegreeAny
}

// Matches reports whether prog is offered at degree level d. An MBA request
// also accepts programs whose name says MBA regardless of the recorded level.
func (d Degree) Matches(prog types.Program) bool {
	if d == DegreeAny {
		return true
	}
	if d == DegreeMBA && strings.Contains(norm(prog.Name), "mba") {
		return true
	}
	return DegreeOf(prog.DegreeLevel) == d
}

func hasToken(s string, set map[string]bool) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '/', ',', '(', ')', '-', '\'':
			return true
		}
		return false
	})
	for _, f := range fields {
		if set[f] {
			return true
		}
	}
	return false
}
