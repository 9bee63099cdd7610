package llm

import (
	"math/rand/v2"
)

// Pool holds the credential clients built at startup. It carries no
// per-request state: callers pass their own exclusion set on every Acquire,
// so a credential failing for one request is still available to others.
type Pool struct {
	clients []Client
	intn    func(n int) int
}

func NewPool(clients ...Client) *Pool {
	kept := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Pool{clients: kept, intn: rand.IntN}
}

// Size bounds how many attempts one logical request may make.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.clients)
}

// Acquire picks a uniformly random client whose index is not in exclude.
func (p *Pool) Acquire(exclude map[int]bool) (Client, int, error) {
	if p.Size() == 0 {
		return nil, -1, ErrNotConfigured
	}
	candidates := make([]int, 0, len(p.clients))
	for i := range p.clients {
		if !exclude[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, -1, ErrPoolExhausted
	}
	idx := candidates[p.intn(len(candidates))]
	return p.clients[idx], idx, nil
}

// Close releases clients that hold connections.
func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	var first error
	for _, c := range p.clients {
		if closer, ok := c.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
