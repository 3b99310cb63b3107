// Package seed installs the baseline records a fresh school needs: an admin user,
// the core subjects and a default grading scale.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/results"
	"schoolops/internal/platform/docstore"
)

type Options struct {
	AdminID   string
	AdminName string
}

var DefaultSubjects = []directory.Subject{
	{ID: "MATH", Name: "Mathematics"},
	{ID: "ENG", Name: "English Language"},
	{ID: "BSC", Name: "Basic Science"},
	{ID: "SOS", Name: "Social Studies"},
}

var DefaultBands = []results.Band{
	{Grade: "A", MinScore: 70, MaxScore: 100},
	{Grade: "B", MinScore: 60, MaxScore: 69.99},
	{Grade: "C", MinScore: 50, MaxScore: 59.99},
	{Grade: "D", MinScore: 40, MaxScore: 49.99},
	{Grade: "F", MinScore: 0, MaxScore: 39.99},
}

// Run is safe to call on every start: existing users, subjects and scales are left alone.
func Run(ctx context.Context, store docstore.Gateway, opts Options) error {
	dir := directory.NewService(store)
	adminID := ids.UserID(opts.AdminID)

	if _, err := directory.LoadUser(ctx, store, adminID); err != nil {
		if !errors.Is(err, directory.ErrUserNotFound) {
			return fmt.Errorf("load admin: %w", err)
		}
		admin := directory.User{ID: adminID, DisplayName: opts.AdminName, Role: directory.RoleAdmin}
		if err := dir.SaveUsers(ctx, admin); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		slog.Info("seeded admin user", "userId", adminID)
	}

	subjects, err := dir.Subjects(ctx)
	if err != nil {
		return fmt.Errorf("load subjects: %w", err)
	}
	if len(subjects) == 0 {
		if err := dir.SaveSubjects(ctx, DefaultSubjects...); err != nil {
			return fmt.Errorf("seed subjects: %w", err)
		}
		slog.Info("seeded subjects", "count", len(DefaultSubjects))
	}

	res := results.NewService(store)
	if _, err := res.GradingScale(ctx); err != nil {
		if !errors.Is(err, results.ErrScaleNotConfigured) {
			return fmt.Errorf("load grading scale: %w", err)
		}
		bands := append([]results.Band(nil), DefaultBands...)
		if _, err := res.SaveGradingScale(ctx, bands, adminID); err != nil {
			return fmt.Errorf("seed grading scale: %w", err)
		}
		slog.Info("seeded grading scale", "bands", len(bands))
	}
	return nil
}
