package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// SeedPassword is the password given to every seeded user.
const SeedPassword = "changeme"

// Seed creates n demo users named user001, user002, ... in s.
// Usernames that already exist are skipped.
func Seed(ctx context.Context, s Store, n int) (int, error) {
	created := 0
	for i := 1; i <= n; i++ {
		req := &model.CreateUserRequest{
			Username: fmt.Sprintf("user%03d", i),
			FullName: fmt.Sprintf("Demo User %d", i),
			Password: SeedPassword,
		}

		if _, err := s.Create(ctx, req); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed user %s: %w", req.Username, err)
		}
		created++
	}
	return created, nil
}
