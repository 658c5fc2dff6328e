// cmd/seed/main.go
//
// Seeds the database with demo members for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gymgate/internal/config"
	"gymgate/internal/member"
	"gymgate/pkg/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	members := member.NewService(db, cfg.ExpiryWarningDays)
	today := time.Now().Truncate(24 * time.Hour)

	demo := []member.CreateParams{
		{Name: "Kim Minsoo", PhoneNumber: "010-1234-5678", Gender: "male", MembershipType: "regular", MembershipStart: today.AddDate(0, -1, 0), DurationMonths: 3},
		{Name: "Lee Jiyoung", PhoneNumber: "010-2345-6789", Gender: "female", MembershipType: "regular", MembershipStart: today, DurationMonths: 6},
		{Name: "Park Junho", PhoneNumber: "010-3456-7890", Gender: "male", MembershipType: "student", MembershipStart: today.AddDate(0, -2, 0), DurationMonths: 1},
		{Name: "Choi Soyeon", PhoneNumber: "010-4567-8901", Gender: "female", MembershipType: "regular", MembershipStart: today.AddDate(0, 0, -25), DurationMonths: 1},
		{Name: "Jung Hyunwoo", PhoneNumber: "010-5678-9012", Gender: "male", MembershipType: "trainer", MembershipStart: today, DurationMonths: 12},
	}

	created := 0
	for _, params := range demo {
		m, err := members.Create(ctx, params)
		if errors.Is(err, member.ErrDuplicatePhone) {
			logger.Info("member already seeded", "phone", params.PhoneNumber)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", params.Name, err)
		}
		logger.Info("created member", "id", m.ID, "name", m.Name)
		created++
	}

	logger.Info("seed complete", "created", created, "skipped", len(demo)-created)
	return nil
}
