package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/model"
	"github.com/vyrodovalexey/useradmin/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// Response messages.
const (
	msgOK          = "OK"
	msgUserCreated = "User created"
	msgUserUpdated = "User updated"
	msgUserDeleted = "User deleted"
)

// RESTHandler handles REST API requests for users.
type RESTHandler struct {
	store     store.Store
	publisher EventPublisher
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
// The publisher may be nil, in which case no change events are sent.
func NewRESTHandler(s store.Store, publisher EventPublisher, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:     s,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/users", h.ListUsers).Methods(http.MethodGet)
	router.HandleFunc("/api/users", h.CreateUser).Methods(http.MethodPost)
	router.HandleFunc("/api/users", h.UpdateUser).Methods(http.MethodPut)
	router.HandleFunc("/api/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(msgOK, response))
}

// ListUsers handles GET /api/users?page=&size=&sort= requests.
func (h *RESTHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := model.ParseQuery(r.URL.Query())

	users, err := h.store.List(ctx, query)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve users")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(msgOK, users))
}

// GetUser handles GET /api/users/{id} requests.
func (h *RESTHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.store.Get(ctx, id)
	if err != nil {
		h.handleStoreError(w, err, "get user")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(msgOK, user))
}

// CreateUser handles POST /api/users requests.
func (h *RESTHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.Create(ctx, &input)
	if err != nil {
		h.handleStoreError(w, err, "create user")
		return
	}

	h.publish(model.ChangeUserCreated, user.UserID)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse[any](msgUserCreated, nil))
}

// UpdateUser handles PUT /api/users requests. The user ID travels in the body.
func (h *RESTHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.Update(ctx, &input)
	if err != nil {
		h.handleStoreError(w, err, "update user")
		return
	}

	h.publish(model.ChangeUserUpdated, user.UserID)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse[any](msgUserUpdated, nil))
}

// DeleteUser handles DELETE /api/users/{id} requests.
func (h *RESTHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.handleStoreError(w, err, "delete user")
		return
	}

	h.publish(model.ChangeUserDeleted, id)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse[any](msgUserDeleted, nil))
}

// pathID parses the {id} route variable, writing a 400 response on failure.
func (h *RESTHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *RESTHandler) publish(changeType model.ChangeType, userID int64) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(model.NewChangeEvent(changeType, userID))
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid user ID")
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "username already exists")
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error envelope with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.NewErrorResponse(message))
}
