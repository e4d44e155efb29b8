// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("username already exists")
	ErrInvalidID     = errors.New("invalid user ID")
	ErrNilRequest    = errors.New("request cannot be nil")
)

// Store defines the interface for user storage operations.
type Store interface {
	// List returns one page of users ordered by the query's sort option.
	List(ctx context.Context, query model.Query) ([]model.User, error)

	// Get retrieves a user by its ID.
	Get(ctx context.Context, id int64) (*model.User, error)

	// Create adds a new user and returns it with its generated ID.
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)

	// Update changes the full name and/or password of an existing user.
	Update(ctx context.Context, req *model.UpdateUserRequest) (*model.User, error)

	// Delete removes a user by its ID.
	Delete(ctx context.Context, id int64) error
}
