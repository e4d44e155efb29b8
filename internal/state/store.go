package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// Messages set in Snapshot.Info after a successful mutation.
const (
	InfoCreated = "User created successfully."
	InfoUpdated = "User updated successfully."
	InfoDeleted = "User deleted successfully."
)

// GenericMessage is stored when a failure carries no usable text.
const GenericMessage = "Something went wrong, please try again."

var (
	// ErrFeedClosed is returned by Follow when the change feed ends on its own.
	ErrFeedClosed = errors.New("change feed closed")
	// ErrInvalidUserID is returned by Delete for IDs the API never issues.
	ErrInvalidUserID = errors.New("invalid user ID")
)

// Transport performs the remote calls. Implementations collapse every failure
// into an error whose Error() is a human-readable message.
type Transport interface {
	List(ctx context.Context, query Query) ([]model.User, error)
	Create(ctx context.Context, req model.CreateUserRequest) error
	Update(ctx context.Context, req model.UpdateUserRequest) error
	Remove(ctx context.Context, id int64) error
}

// Watcher delivers change notifications for the remote collection.
type Watcher interface {
	Watch(ctx context.Context) (<-chan model.ChangeEvent, error)
}

// PanicError reports a transport call that panicked.
type PanicError struct {
	Operation string
	Value     any
}

func (e *PanicError) Error() string {
	return GenericMessage
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for failed operations.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records operation outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithInitialQuery sets the query the store starts with.
func WithInitialQuery(q Query) Option {
	return func(s *Store) {
		s.query = q
	}
}

// Store owns one page of users, the query that selects it and the status of
// every operation in flight. It is safe for concurrent use. The lock is never
// held across a transport call.
type Store struct {
	transport Transport
	logger    *zap.Logger
	metrics   *Metrics

	mu         sync.RWMutex
	users      []model.User
	query      Query
	generation uint64
	loads      int
	submits    int
	deleting   []int64
	errMsg     string
	info       string

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New creates a Store that fetches through transport.
func New(transport Transport, opts ...Option) *Store {
	s := &Store{
		transport: transport,
		logger:    zap.NewNop(),
		users:     []model.User{},
		query:     model.DefaultQuery(),
		subs:      make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Users:      slices.Clone(s.users),
		Query:      s.query,
		Loading:    s.loads > 0,
		Submitting: s.submits > 0,
		Deleting:   slices.Clone(s.deleting),
		Error:      s.errMsg,
		Info:       s.info,
	}
	if n := len(s.deleting); n > 0 {
		snap.DeletingID = s.deleting[n-1]
	}
	return snap
}

// SetQuery merges patch into the current query. It does not reset the page
// or validate the size, and it does not fetch.
func (s *Store) SetQuery(patch QueryPatch) {
	s.mu.Lock()
	s.query = patch.apply(s.query)
	s.mu.Unlock()

	s.notify()
}

// ApplyQuery merges patch into the query and reloads.
func (s *Store) ApplyQuery(ctx context.Context, patch QueryPatch) error {
	s.SetQuery(patch)
	return s.Load(ctx)
}

// Load fetches the page selected by the current query. On success the users
// are replaced; on failure the previous users are kept and Error is set.
// Only the most recently issued load may change the state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loads++
	s.errMsg = ""
	query := s.query
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loads--
		s.mu.Unlock()
		s.notify()
	}()

	query.Sort = model.SafeSort(query.Sort)

	start := time.Now()
	users, err := s.list(ctx, query)
	s.metrics.observe(opLoad, start, err)

	s.mu.Lock()
	current := gen == s.generation
	if current {
		if err != nil {
			s.errMsg = messageOf(err)
		} else {
			s.users = slices.Clone(users)
			if s.users == nil {
				s.users = []model.User{}
			}
		}
	}
	s.mu.Unlock()

	if !current {
		s.metrics.stale()
		s.logger.Debug("discarding stale load result", zap.Uint64("generation", gen))
	} else if err != nil {
		s.logger.Warn("load users failed",
			zap.Int("page", query.Page),
			zap.Int("size", query.Size),
			zap.String("sort", string(query.Sort)),
			zap.Error(err),
		)
	}

	return err
}

// Create registers a new user and reloads. values are sent as given.
func (s *Store) Create(ctx context.Context, values model.UserFormValues) error {
	req := model.CreateUserRequest{
		Username: values.Username,
		FullName: values.FullName,
		Password: values.Password,
	}
	return s.submit(ctx, opCreate, InfoCreated, func(ctx context.Context) error {
		return s.transport.Create(ctx, req)
	})
}

// Update sends the non-blank fields of values for user and reloads.
func (s *Store) Update(ctx context.Context, user model.User, values model.UserFormValues) error {
	req := UpdatePayload(user, values)
	return s.submit(ctx, opUpdate, InfoUpdated, func(ctx context.Context) error {
		return s.transport.Update(ctx, req)
	}, zap.Int64("user_id", user.UserID))
}

// Delete removes user and reloads. User IDs start at 1; anything lower is
// rejected without a remote call.
func (s *Store) Delete(ctx context.Context, user model.User) error {
	id := user.UserID
	if id <= 0 {
		s.mu.Lock()
		s.errMsg = ErrInvalidUserID.Error()
		s.info = ""
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("delete user %d: %w", id, ErrInvalidUserID)
	}

	s.mu.Lock()
	s.deleting = append(s.deleting, id)
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		if i := slices.Index(s.deleting, id); i >= 0 {
			s.deleting = slices.Delete(s.deleting, i, i+1)
		}
		s.mu.Unlock()
		s.notify()
	}()

	return s.mutate(ctx, opDelete, InfoDeleted, func(ctx context.Context) error {
		return s.transport.Remove(ctx, id)
	}, zap.Int64("user_id", id))
}

// ClearMessage resets Error and Info.
func (s *Store) ClearMessage() {
	s.mu.Lock()
	s.errMsg = ""
	s.info = ""
	s.mu.Unlock()

	s.notify()
}

// UpdatePayload builds the sparse update request for user: full name and
// password are included only when non-blank, trimmed. The username is never sent.
func UpdatePayload(user model.User, values model.UserFormValues) model.UpdateUserRequest {
	req := model.UpdateUserRequest{UserID: user.UserID}
	if fullName := strings.TrimSpace(values.FullName); fullName != "" {
		req.FullName = &fullName
	}
	if password := strings.TrimSpace(values.Password); password != "" {
		req.Password = &password
	}
	return req
}

func (s *Store) submit(ctx context.Context, op, info string, call func(context.Context) error, fields ...zap.Field) error {
	s.mu.Lock()
	s.submits++
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.submits--
		s.mu.Unlock()
		s.notify()
	}()

	return s.mutate(ctx, op, info, call, fields...)
}

// mutate runs call; on success it sets info and reloads, on failure it sets
// Error. A failed reload does not fail the mutation.
func (s *Store) mutate(ctx context.Context, op, info string, call func(context.Context) error, fields ...zap.Field) error {
	start := time.Now()
	err := s.guard(op, func() error { return call(ctx) })
	s.metrics.observe(op, start, err)

	if err != nil {
		s.mu.Lock()
		s.errMsg = messageOf(err)
		s.mu.Unlock()

		s.logger.Warn(op+" user failed", append(fields, zap.Error(err))...)
		return err
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()

	_ = s.Load(ctx)
	return nil
}

func (s *Store) list(ctx context.Context, query Query) ([]model.User, error) {
	var users []model.User
	err := s.guard(opLoad, func() error {
		var err error
		users, err = s.transport.List(ctx, query)
		return err
	})
	return users, err
}

// guard converts a panicking transport call into a *PanicError.
func (s *Store) guard(op string, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transport panicked",
				zap.String("operation", op),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = &PanicError{Operation: op, Value: r}
		}
	}()
	return call()
}

func messageOf(err error) string {
	if text := strings.TrimSpace(err.Error()); text != "" {
		return text
	}
	return GenericMessage
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce: a slow reader sees at least one signal after the last
// change. The cancel func stops delivery.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Follow reloads whenever w reports a change, until ctx is done or the feed
// closes. Bursts of events trigger a single reload.
func (s *Store) Follow(ctx context.Context, w Watcher) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch users: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return feedEnd(ctx)
			}
			s.logger.Debug("change event received",
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Int64("user_id", event.UserID),
			)
			if closed := drain(events); closed {
				_ = s.Load(ctx)
				return feedEnd(ctx)
			}
			_ = s.Load(ctx)
		}
	}
}

// drain discards queued events and reports whether the channel was closed.
func drain(events <-chan model.ChangeEvent) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return true
			}
		default:
			return false
		}
	}
}

func feedEnd(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrFeedClosed
}
