package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr error
	}{
		{
			name:    "valid request",
			req:     CreateUserRequest{Username: "alice", FullName: "Alice A", Password: "pass1"},
			wantErr: nil,
		},
		{
			name:    "valid - minimum password length",
			req:     CreateUserRequest{Username: "bob", FullName: "Bob", Password: "1234"},
			wantErr: nil,
		},
		{
			name:    "invalid - empty username",
			req:     CreateUserRequest{Username: "", FullName: "Alice", Password: "pass1"},
			wantErr: ErrEmptyUsername,
		},
		{
			name:    "invalid - blank username",
			req:     CreateUserRequest{Username: "   ", FullName: "Alice", Password: "pass1"},
			wantErr: ErrEmptyUsername,
		},
		{
			name:    "invalid - username too long",
			req:     CreateUserRequest{Username: strings.Repeat("a", MaxUsernameLength+1), FullName: "A", Password: "pass1"},
			wantErr: ErrUsernameTooLong,
		},
		{
			name:    "invalid - empty full name",
			req:     CreateUserRequest{Username: "alice", FullName: "", Password: "pass1"},
			wantErr: ErrEmptyFullName,
		},
		{
			name:    "invalid - full name too long",
			req:     CreateUserRequest{Username: "alice", FullName: strings.Repeat("a", MaxFullNameLength+1), Password: "pass1"},
			wantErr: ErrFullNameTooLong,
		},
		{
			name:    "invalid - short password",
			req:     CreateUserRequest{Username: "alice", FullName: "Alice", Password: "abc"},
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "invalid - password only whitespace",
			req:     CreateUserRequest{Username: "alice", FullName: "Alice", Password: "      "},
			wantErr: ErrPasswordTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := tt.req.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     UpdateUserRequest
		wantErr error
	}{
		{
			name:    "full name only",
			req:     UpdateUserRequest{UserID: 1, FullName: strPtr("New Name")},
			wantErr: nil,
		},
		{
			name:    "password only",
			req:     UpdateUserRequest{UserID: 1, Password: strPtr("newpass")},
			wantErr: nil,
		},
		{
			name:    "both fields",
			req:     UpdateUserRequest{UserID: 1, FullName: strPtr("N"), Password: strPtr("newpass")},
			wantErr: nil,
		},
		{
			name:    "invalid - zero id",
			req:     UpdateUserRequest{UserID: 0, FullName: strPtr("N")},
			wantErr: ErrInvalidUserID,
		},
		{
			name:    "invalid - nothing to update",
			req:     UpdateUserRequest{UserID: 1},
			wantErr: ErrNothingToUpdate,
		},
		{
			name:    "invalid - blank full name",
			req:     UpdateUserRequest{UserID: 1, FullName: strPtr("  ")},
			wantErr: ErrEmptyFullName,
		},
		{
			name:    "invalid - short password",
			req:     UpdateUserRequest{UserID: 1, Password: strPtr("abc")},
			wantErr: ErrPasswordTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := tt.req.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateUserRequest_JSONOmitsNilFields(t *testing.T) {
	// Arrange
	req := UpdateUserRequest{UserID: 7, Password: strPtr("newpass")}

	// Act
	data, err := json.Marshal(req)

	// Assert
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got := string(data)
	if got != `{"userId":7,"password":"newpass"}` {
		t.Errorf("Marshal() = %s", got)
	}
}

func TestUser_JSONFieldNames(t *testing.T) {
	// Arrange
	user := User{UserID: 3, Username: "carol", FullName: "Carol C"}

	// Act
	data, err := json.Marshal(user)

	// Assert
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"userId":3,"username":"carol","fullName":"Carol C"}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestUserFormValues_ValidateCreate(t *testing.T) {
	tests := []struct {
		name    string
		values  UserFormValues
		wantErr error
	}{
		{"valid", UserFormValues{Username: "alice", FullName: "Alice A", Password: "pass1"}, nil},
		{"valid after trim", UserFormValues{Username: " alice ", FullName: " Alice ", Password: " pass "}, nil},
		{"missing username", UserFormValues{FullName: "Alice", Password: "pass1"}, ErrEmptyUsername},
		{"missing full name", UserFormValues{Username: "alice", Password: "pass1"}, ErrEmptyFullName},
		{"short password", UserFormValues{Username: "alice", FullName: "Alice", Password: "abc"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.values.ValidateCreate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCreate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserFormValues_ValidateEdit(t *testing.T) {
	tests := []struct {
		name    string
		values  UserFormValues
		wantErr error
	}{
		{"full name only", UserFormValues{FullName: "Alice"}, nil},
		{"password only", UserFormValues{Password: "newpass"}, nil},
		{"username ignored", UserFormValues{Username: "x", FullName: "Alice"}, nil},
		{"nothing", UserFormValues{Username: "x"}, ErrNothingToUpdate},
		{"short password", UserFormValues{FullName: "Alice", Password: "ab"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.values.ValidateEdit(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEdit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
