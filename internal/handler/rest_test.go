package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/model"
	"github.com/vyrodovalexey/useradmin/internal/store"
)

// mockStore implements store.Store for testing
type mockStore struct {
	users      map[int64]model.User
	lastQuery  model.Query
	listErr    error
	getErr     error
	createErr  error
	updateErr  error
	deleteErr  error
	lastCreate *model.CreateUserRequest
	lastUpdate *model.UpdateUserRequest
}

func newMockStore() *mockStore {
	return &mockStore{
		users: make(map[int64]model.User),
	}
}

func (m *mockStore) List(_ context.Context, q model.Query) ([]model.User, error) {
	m.lastQuery = q
	if m.listErr != nil {
		return nil, m.listErr
	}
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (m *mockStore) Get(_ context.Context, id int64) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, exists := m.users[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *mockStore) Create(_ context.Context, req *model.CreateUserRequest) (*model.User, error) {
	m.lastCreate = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	u := model.User{UserID: int64(len(m.users) + 1), Username: req.Username, FullName: req.FullName}
	m.users[u.UserID] = u
	return &u, nil
}

func (m *mockStore) Update(_ context.Context, req *model.UpdateUserRequest) (*model.User, error) {
	m.lastUpdate = req
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, exists := m.users[req.UserID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	m.users[u.UserID] = u
	return &u, nil
}

func (m *mockStore) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.users[id]; !exists {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// recordingPublisher captures published change events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (p *recordingPublisher) Publish(event model.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []model.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ChangeEvent(nil), p.events...)
}

func newTestRouter(s store.Store, pub EventPublisher) *mux.Router {
	router := mux.NewRouter()
	NewRESTHandler(s, pub, zap.NewNop()).RegisterRoutes(router)
	return router
}

func decodeEnvelope[T any](t *testing.T, rr *httptest.ResponseRecorder) model.APIResponse[T] {
	t.Helper()

	var response model.APIResponse[T]
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func TestNewRESTHandler(t *testing.T) {
	// Act
	handler := NewRESTHandler(newMockStore(), nil, zap.NewNop())

	// Assert
	if handler == nil {
		t.Fatal("NewRESTHandler() returned nil")
	}
	if handler.store == nil {
		t.Error("store should be set")
	}
	if handler.logger == nil {
		t.Error("logger should be set")
	}
}

func TestRESTHandler_HealthCheck(t *testing.T) {
	// Arrange
	handler := NewRESTHandler(newMockStore(), nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	// Act
	handler.HealthCheck(rr, req)

	// Assert
	if rr.Code != http.StatusOK {
		t.Errorf("HealthCheck() status = %d, want %d", rr.Code, http.StatusOK)
	}
	response := decodeEnvelope[HealthResponse](t, rr)
	if !response.Success {
		t.Error("HealthCheck() response.Success = false, want true")
	}
	if response.Data.Status != "healthy" {
		t.Errorf("HealthCheck() status = %s, want healthy", response.Data.Status)
	}
	if response.Data.Version != Version {
		t.Errorf("HealthCheck() version = %s, want %s", response.Data.Version, Version)
	}
}

func TestRESTHandler_ListUsers(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setup      func(*mockStore)
		wantStatus int
		wantCount  int
		wantQuery  model.Query
	}{
		{
			name:       "empty list with defaults",
			url:        "/api/users",
			setup:      func(_ *mockStore) {},
			wantStatus: http.StatusOK,
			wantCount:  0,
			wantQuery:  model.Query{Page: 0, Size: 20, Sort: model.SortByUserID},
		},
		{
			name: "explicit query",
			url:  "/api/users?page=2&size=5&sort=username",
			setup: func(m *mockStore) {
				m.users[1] = model.User{UserID: 1, Username: "alice", FullName: "Alice"}
				m.users[2] = model.User{UserID: 2, Username: "bob", FullName: "Bob"}
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
			wantQuery:  model.Query{Page: 2, Size: 5, Sort: model.SortByUsername},
		},
		{
			name:       "unsafe sort is replaced",
			url:        "/api/users?sort=password&size=1000",
			setup:      func(_ *mockStore) {},
			wantStatus: http.StatusOK,
			wantQuery:  model.Query{Page: 0, Size: 100, Sort: model.SortByUserID},
		},
		{
			name: "store error",
			url:  "/api/users",
			setup: func(m *mockStore) {
				m.listErr = errors.New("database error")
			},
			wantStatus: http.StatusInternalServerError,
			wantQuery:  model.DefaultQuery(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ms := newMockStore()
			tt.setup(ms)
			router := newTestRouter(ms, nil)
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rr := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Fatalf("ListUsers() status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if ms.lastQuery != tt.wantQuery {
				t.Errorf("store query = %+v, want %+v", ms.lastQuery, tt.wantQuery)
			}

			response := decodeEnvelope[[]model.User](t, rr)
			if tt.wantStatus != http.StatusOK {
				if response.Success || response.Message == "" {
					t.Errorf("error envelope = %+v", response)
				}
				return
			}
			if !response.Success {
				t.Error("ListUsers() response.Success = false, want true")
			}
			if len(response.Data) != tt.wantCount {
				t.Errorf("ListUsers() count = %d, want %d", len(response.Data), tt.wantCount)
			}
		})
	}
}

func TestRESTHandler_GetUser(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing user", "/api/users/1", http.StatusOK},
		{"missing user", "/api/users/99", http.StatusNotFound},
		{"zero id", "/api/users/0", http.StatusBadRequest},
		{"non numeric id", "/api/users/abc", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ms := newMockStore()
			ms.users[1] = model.User{UserID: 1, Username: "alice", FullName: "Alice"}
			router := newTestRouter(ms, nil)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Errorf("GetUser() status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRESTHandler_CreateUser(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		createErr   error
		wantStatus  int
		wantMessage string
		wantEvents  int
	}{
		{
			name:       "valid user",
			body:       `{"username":"alice","fullName":"Alice A","password":"pass1"}`,
			wantStatus: http.StatusCreated,
			wantEvents: 1,
		},
		{
			name:        "invalid json",
			body:        `{invalid`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid request body",
		},
		{
			name:        "short password",
			body:        `{"username":"alice","fullName":"Alice A","password":"abc"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: model.ErrPasswordTooShort.Error(),
		},
		{
			name:        "duplicate username",
			body:        `{"username":"alice","fullName":"Alice A","password":"pass1"}`,
			createErr:   store.ErrAlreadyExists,
			wantStatus:  http.StatusConflict,
			wantMessage: "username already exists",
		},
		{
			name:        "unexpected store error",
			body:        `{"username":"alice","fullName":"Alice A","password":"pass1"}`,
			createErr:   errors.New("disk full"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ms := newMockStore()
			ms.createErr = tt.createErr
			pub := &recordingPublisher{}
			router := newTestRouter(ms, pub)
			req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Fatalf("CreateUser() status = %d, want %d", rr.Code, tt.wantStatus)
			}
			response := decodeEnvelope[any](t, rr)
			if tt.wantMessage != "" && response.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", response.Message, tt.wantMessage)
			}
			if response.Data != nil {
				t.Errorf("data = %v, want null", response.Data)
			}
			events := pub.Events()
			if len(events) != tt.wantEvents {
				t.Fatalf("published %d events, want %d", len(events), tt.wantEvents)
			}
			if tt.wantEvents > 0 && events[0].Type != model.ChangeUserCreated {
				t.Errorf("event type = %s, want %s", events[0].Type, model.ChangeUserCreated)
			}
		})
	}
}

func TestRESTHandler_UpdateUser(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantEvents int
	}{
		{"full name", `{"userId":1,"fullName":"New Name"}`, http.StatusOK, 1},
		{"password", `{"userId":1,"password":"newpass"}`, http.StatusOK, 1},
		{"missing user", `{"userId":99,"fullName":"X"}`, http.StatusNotFound, 0},
		{"nothing to update", `{"userId":1}`, http.StatusBadRequest, 0},
		{"missing id", `{"fullName":"X"}`, http.StatusBadRequest, 0},
		{"invalid json", `nope`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ms := newMockStore()
			ms.users[1] = model.User{UserID: 1, Username: "alice", FullName: "Alice"}
			pub := &recordingPublisher{}
			router := newTestRouter(ms, pub)
			req := httptest.NewRequest(http.MethodPut, "/api/users", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Errorf("UpdateUser() status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := len(pub.Events()); got != tt.wantEvents {
				t.Errorf("published %d events, want %d", got, tt.wantEvents)
			}
		})
	}
}

func TestRESTHandler_UpdateUser_IgnoresUsername(t *testing.T) {
	// Arrange
	ms := newMockStore()
	ms.users[1] = model.User{UserID: 1, Username: "alice", FullName: "Alice"}
	router := newTestRouter(ms, nil)
	body := `{"userId":1,"username":"mallory","fullName":"Alice B"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rr, req)

	// Assert
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateUser() status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ms.users[1].Username != "alice" {
		t.Errorf("Username = %s, want alice", ms.users[1].Username)
	}
}

func TestRESTHandler_DeleteUser(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		deleteErr  error
		wantStatus int
		wantEvents int
	}{
		{"existing user", "/api/users/1", nil, http.StatusOK, 1},
		{"missing user", "/api/users/42", nil, http.StatusNotFound, 0},
		{"store failure", "/api/users/1", errors.New("boom"), http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ms := newMockStore()
			ms.users[1] = model.User{UserID: 1, Username: "alice", FullName: "Alice"}
			ms.deleteErr = tt.deleteErr
			pub := &recordingPublisher{}
			router := newTestRouter(ms, pub)
			req := httptest.NewRequest(http.MethodDelete, tt.path, nil)
			rr := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Fatalf("DeleteUser() status = %d, want %d", rr.Code, tt.wantStatus)
			}
			events := pub.Events()
			if len(events) != tt.wantEvents {
				t.Fatalf("published %d events, want %d", len(events), tt.wantEvents)
			}
			if tt.wantEvents > 0 && (events[0].Type != model.ChangeUserDeleted || events[0].UserID != 1) {
				t.Errorf("event = %+v", events[0])
			}
		})
	}
}

func TestRESTHandler_ContentType(t *testing.T) {
	// Arrange
	handler := NewRESTHandler(newMockStore(), nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	// Act
	handler.HealthCheck(rr, req)

	// Assert
	contentType := rr.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", contentType)
	}
}

func TestVersion(t *testing.T) {
	if Version != "1.0.0" {
		t.Errorf("Version = %s, want 1.0.0", Version)
	}
}
