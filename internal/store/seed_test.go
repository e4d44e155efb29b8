package store

import (
	"context"
	"errors"
	"testing"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

func TestSeed(t *testing.T) {
	// Arrange
	s := newTestStore()
	ctx := context.Background()

	// Act
	created, err := Seed(ctx, s, 3)

	// Assert
	if err != nil {
		t.Fatalf("Seed() unexpected error: %v", err)
	}
	if created != 3 {
		t.Errorf("Seed() created = %d, want 3", created)
	}

	users, err := s.List(ctx, model.Query{Size: 10, Sort: model.SortByUsername})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	want := []string{"user001", "user002", "user003"}
	if len(users) != len(want) {
		t.Fatalf("List() returned %d users, want %d", len(users), len(want))
	}
	for i, u := range users {
		if u.Username != want[i] {
			t.Errorf("users[%d].Username = %s, want %s", i, u.Username, want[i])
		}
	}
}

func TestSeed_SkipsExisting(t *testing.T) {
	// Arrange
	s := newTestStore()
	seed(t, s, "user002")

	// Act
	created, err := Seed(context.Background(), s, 3)

	// Assert
	if err != nil {
		t.Fatalf("Seed() unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("Seed() created = %d, want 2", created)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestSeed_CancelledContext(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	created, err := Seed(ctx, s, 2)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Seed() error = %v, want context.Canceled", err)
	}
	if created != 0 {
		t.Errorf("Seed() created = %d, want 0", created)
	}
}

func TestSeed_Zero(t *testing.T) {
	s := newTestStore()

	created, err := Seed(context.Background(), s, 0)

	if err != nil || created != 0 {
		t.Errorf("Seed(0) = (%d, %v), want (0, nil)", created, err)
	}
}
