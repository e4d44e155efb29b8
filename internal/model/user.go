// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"strings"
	"time"
)

// Validation errors for user input.
var (
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username cannot exceed 64 characters")
	ErrEmptyFullName    = errors.New("full name cannot be empty")
	ErrFullNameTooLong  = errors.New("full name cannot exceed 255 characters")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrNothingToUpdate  = errors.New("either full name or password must be provided")
	ErrInvalidUserID    = errors.New("user ID must be positive")
)

// Validation constants.
const (
	MaxUsernameLength = 64
	MaxFullNameLength = 255
	MinPasswordLength = 4
)

// User is a single account of the managed collection.
// UserID is assigned by the server and never changes.
type User struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// UserRecord is the server-side representation of a user.
// It is never serialized to clients.
type UserRecord struct {
	User
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserRequest is the payload of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// Validate checks the request the way the server enforces it.
func (r *CreateUserRequest) Validate() error {
	username := strings.TrimSpace(r.Username)
	if username == "" {
		return ErrEmptyUsername
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	fullName := strings.TrimSpace(r.FullName)
	if fullName == "" {
		return ErrEmptyFullName
	}
	if len(fullName) > MaxFullNameLength {
		return ErrFullNameTooLong
	}

	if len(strings.TrimSpace(r.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	return nil
}

// UpdateUserRequest is the payload of PUT /api/users.
// Nil fields are left unchanged; the username is not updatable.
type UpdateUserRequest struct {
	UserID   int64   `json:"userId"`
	FullName *string `json:"fullName,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Validate checks the request the way the server enforces it.
func (r *UpdateUserRequest) Validate() error {
	if r.UserID <= 0 {
		return ErrInvalidUserID
	}

	if r.FullName == nil && r.Password == nil {
		return ErrNothingToUpdate
	}

	if r.FullName != nil {
		fullName := strings.TrimSpace(*r.FullName)
		if fullName == "" {
			return ErrEmptyFullName
		}
		if len(fullName) > MaxFullNameLength {
			return ErrFullNameTooLong
		}
	}

	if r.Password != nil && len(strings.TrimSpace(*r.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	return nil
}

// UserFormValues are the raw values a user-facing form collects.
type UserFormValues struct {
	Username string
	FullName string
	Password string
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (v UserFormValues) Trimmed() UserFormValues {
	return UserFormValues{
		Username: strings.TrimSpace(v.Username),
		FullName: strings.TrimSpace(v.FullName),
		Password: strings.TrimSpace(v.Password),
	}
}

// ValidateCreate reports whether the values may be submitted as a new user.
func (v UserFormValues) ValidateCreate() error {
	t := v.Trimmed()
	if t.Username == "" {
		return ErrEmptyUsername
	}
	if t.FullName == "" {
		return ErrEmptyFullName
	}
	if len(t.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateEdit reports whether the values may be submitted as an edit.
// A blank password keeps the current one; a non-blank one must be long enough.
func (v UserFormValues) ValidateEdit() error {
	t := v.Trimmed()
	if t.FullName == "" && t.Password == "" {
		return ErrNothingToUpdate
	}
	if t.Password != "" && len(t.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
