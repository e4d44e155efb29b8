package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

const btreeDegree = 32

// MemoryStore implements Store with in-memory B-tree indexes,
// one ordered by user ID and one by username.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       *btree.BTreeG[*model.UserRecord]
	byUsername *btree.BTreeG[*model.UserRecord]
	hashCost   int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithHashCost sets the bcrypt cost used for password hashes.
func WithHashCost(cost int) MemoryOption {
	return func(s *MemoryStore) {
		s.hashCost = cost
	}
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID: btree.NewG(btreeDegree, func(a, b *model.UserRecord) bool {
			return a.UserID < b.UserID
		}),
		byUsername: btree.NewG(btreeDegree, func(a, b *model.UserRecord) bool {
			return a.Username < b.Username
		}),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of users ordered by the query's sort option.
func (s *MemoryStore) List(ctx context.Context, query model.Query) ([]model.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list users: %w", ctx.Err())
	default:
	}

	q := query.Sanitized()
	index := s.byID
	if q.Sort == model.SortByUsername {
		index = s.byUsername
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := q.Offset()
	if skip >= index.Len() {
		return []model.User{}, nil
	}
	users := make([]model.User, 0, q.Size)
	index.Ascend(func(rec *model.UserRecord) bool {
		if skip > 0 {
			skip--
			return true
		}
		users = append(users, rec.User)
		return len(users) < q.Size
	})

	return users, nil
}

// Get retrieves a user by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get user: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byID.Get(idKey(id))
	if !exists {
		return nil, ErrNotFound
	}

	user := rec.User
	return &user, nil
}

// Create adds a new user and returns it with its generated ID.
func (s *MemoryStore) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create user: %w", ctx.Err())
	default:
	}

	if req == nil {
		return nil, fmt.Errorf("create user: %w", ErrNilRequest)
	}

	username := strings.TrimSpace(req.Username)

	// Hash outside the lock.
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername.Get(usernameKey(username)); exists {
		return nil, ErrAlreadyExists
	}

	s.nextID++
	now := time.Now().UTC()
	rec := &model.UserRecord{
		User: model.User{
			UserID:   s.nextID,
			Username: username,
			FullName: strings.TrimSpace(req.FullName),
		},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID.ReplaceOrInsert(rec)
	s.byUsername.ReplaceOrInsert(rec)

	user := rec.User
	return &user, nil
}

// Update changes the full name and/or password of an existing user.
func (s *MemoryStore) Update(ctx context.Context, req *model.UpdateUserRequest) (*model.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update user: %w", ctx.Err())
	default:
	}

	if req == nil {
		return nil, fmt.Errorf("update user: %w", ErrNilRequest)
	}

	if req.UserID <= 0 {
		return nil, ErrInvalidID
	}

	var hash []byte
	if req.Password != nil {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(*req.Password)), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("update user: hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID.Get(idKey(req.UserID))
	if !exists {
		return nil, ErrNotFound
	}

	updated := *existing
	if req.FullName != nil {
		updated.FullName = strings.TrimSpace(*req.FullName)
	}
	if hash != nil {
		updated.PasswordHash = hash
	}
	updated.UpdatedAt = time.Now().UTC()

	s.byID.ReplaceOrInsert(&updated)
	s.byUsername.ReplaceOrInsert(&updated)

	user := updated.User
	return &user, nil
}

// Delete removes a user by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete user: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.byID.Delete(idKey(id))
	if !exists {
		return ErrNotFound
	}
	s.byUsername.Delete(rec)

	return nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID.Len()
}

func idKey(id int64) *model.UserRecord {
	return &model.UserRecord{User: model.User{UserID: id}}
}

func usernameKey(username string) *model.UserRecord {
	return &model.UserRecord{User: model.User{Username: username}}
}
