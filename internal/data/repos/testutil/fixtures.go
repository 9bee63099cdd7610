package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, stage types.Stage) *types.User {
	tb.Helper()
	u := &types.User{
		ID:                  uuid.New(),
		Email:               uuid.NewString() + "@example.com",
		FullName:            "Test Student",
		CurrentStage:        stage,
		OnboardingCompleted: stage != types.StageOnboarding,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, gpa float64, budget int, field string) *types.UserProfile {
	tb.Helper()
	p := &types.UserProfile{
		UserID:             userID,
		GPA:                &gpa,
		BudgetPerYear:      &budget,
		FieldOfStudy:       field,
		IntendedDegree:     "Masters",
		PreferredCountries: datatypes.JSON([]byte(`["USA","Germany"]`)),
		IELTSTOEFLStatus:   "COMPLETED",
		GREGMATStatus:      "NOT_STARTED",
		SOPStatus:          "DRAFT",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedUniversity(tb testing.TB, ctx context.Context, tx *gorm.DB, name, country string, programs ...types.Program) *types.University {
	tb.Helper()
	u := &types.University{
		Name:       name,
		Country:    country,
		City:       "City",
		IsPublic:   true,
		DataSource: "test",
		Programs:   programs,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed university: %v", err)
	}
	return u
}

func SeedShortlist(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, universityID uint, locked bool) *types.ShortlistEntry {
	tb.Helper()
	e := &types.ShortlistEntry{
		UserID:       userID,
		UniversityID: universityID,
		Category:     types.CategoryTarget,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed shortlist: %v", err)
	}
	if locked {
		if err := tx.WithContext(ctx).Model(e).Updates(map[string]interface{}{"is_locked": true, "locked_at": gorm.Expr("CURRENT_TIMESTAMP")}).Error; err != nil {
			tb.Fatalf("lock shortlist: %v", err)
		}
		e.IsLocked = true
	}
	return e
}

func Program(name, degree string, tuition int, minGPA float64) types.Program {
	return types.Program{
		Name:              name,
		DegreeLevel:       degree,
		Discipline:        name,
		Category:          "STEM",
		TuitionPerYearUSD: tuition,
		MinGPA:            &minGPA,
	}
}
