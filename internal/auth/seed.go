package auth

import (
	"context"
	"fmt"

	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

// SeedAccount is one configured seed credential.
type SeedAccount struct {
	Email    string
	Password string
	IsAdmin  bool
}

// SeedAccounts creates or overwrites the configured seed accounts at
// startup. Seeding is idempotent: an existing account with the same email
// is replaced, so a redeploy converges on the configured credentials.
// Seeded accounts do not have must_change_password set — the operator
// chose the password deliberately. Entries with an empty email or
// password are skipped with a warning. Returns the number of accounts
// written.
func SeedAccounts(ctx context.Context, store Store, seeds []SeedAccount, logger *logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.Default()
	}

	seeded := 0
	for _, seed := range seeds {
		email := NormalizeEmail(seed.Email)
		if email == "" || seed.Password == "" {
			logger.Warn("skipping seed account with missing email or password")
			continue
		}

		hash, err := HashPassword(seed.Password)
		if err != nil {
			return seeded, fmt.Errorf("hashing seed password for %s: %w", email, err)
		}

		account := &Account{
			Email:              email,
			PasswordHash:       hash,
			IsAdmin:            seed.IsAdmin,
			MustChangePassword: false,
		}
		if err := store.Create(ctx, account); err != nil {
			return seeded, fmt.Errorf("creating seed account %s: %w", email, err)
		}

		logger.Info("seed account written", "email", email, "is_admin", seed.IsAdmin)
		seeded++
	}

	return seeded, nil
}
