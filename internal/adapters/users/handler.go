// Package users serves the /api/users HTTP resource over a domain.UserStore.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"usersapi/internal/validation"
	"usersapi/pkg/domain"
)

// BasePath prefixes every accepted request path.
const BasePath = "/api/users"

const (
	DefaultBodyTimeout  = 10 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

const (
	msgUnsupportedMethod = "HTTP method is not supported"
	msgInternal          = "Internal Server Error"
	msgMissingFields     = "Request body does not contain required fields"
	msgInvalidFields     = "Request body contains invalid fields"
	msgIDNotProvided     = "User id is not provided"
	msgMalformedBody     = "Request body is not valid JSON"
	msgBodyTimeout       = "Request body was not received in time"
	msgBodyTooLarge      = "Request body is too large"
)

// Logger receives request failures. *slog.Logger satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler dispatches user requests by method and path.
type Handler struct {
	store        domain.UserStore
	logger       Logger
	bodyTimeout  time.Duration
	maxBodyBytes int64
}

// Option customises a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for request failures.
func WithLogger(l Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBodyTimeout bounds how long a request body may take to arrive.
// Zero disables the bound.
func WithBodyTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d >= 0 {
			h.bodyTimeout = d
		}
	}
}

// WithMaxBodyBytes caps the request body size. Zero or less disables the cap.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBodyBytes = n }
}

// NewHandler constructs a user handler over store.
func NewHandler(store domain.UserStore, opts ...Option) *Handler {
	h := &Handler{
		store:        store,
		logger:       noopLogger{},
		bodyTimeout:  DefaultBodyTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// response is fully encoded before anything reaches the client.
type response struct {
	status int
	body   []byte
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.dispatch(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) (res response) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic serving user request", "method", r.Method, "path", r.URL.Path, "panic", rec)
			res = errorResponse(http.StatusInternalServerError, msgInternal)
		}
	}()

	path := r.URL.Path
	if !strings.HasPrefix(path, BasePath) {
		return errorResponse(http.StatusNotFound, fmt.Sprintf("%s path does not exist", path))
	}
	id := userID(path)

	if h.store == nil {
		h.logger.Error("user store not configured")
		return errorResponse(http.StatusInternalServerError, msgInternal)
	}

	var err error
	switch r.Method {
	case http.MethodGet:
		if id == "" {
			res, err = h.handleList(r.Context())
		} else {
			res, err = h.handleGet(r.Context(), id)
		}
	case http.MethodPost:
		res, err = h.handleCreate(w, r)
	case http.MethodPut:
		res, err = h.handleUpdate(w, r, id)
	default:
		return errorResponse(http.StatusNotImplemented, msgUnsupportedMethod)
	}
	if err != nil {
		h.logger.Error("user request failed", "method", r.Method, "path", path, "error", err)
		return errorResponse(http.StatusInternalServerError, msgInternal)
	}
	return res
}

// userID strips the base path and a single leading separator. An empty
// remainder means a collection request.
func userID(path string) string {
	rest := strings.TrimPrefix(path, BasePath)
	return strings.TrimPrefix(rest, "/")
}

func (h *Handler) handleList(ctx context.Context) (response, error) {
	users, err := h.store.ListUsers(ctx)
	if err != nil {
		return response{}, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return jsonResponse(http.StatusOK, users)
}

func (h *Handler) handleGet(ctx context.Context, id string) (response, error) {
	user, ok, err := h.store.GetUser(ctx, id)
	if err != nil {
		return response{}, err
	}
	if !ok {
		return notFound(id), nil
	}
	return jsonResponse(http.StatusOK, user)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) (response, error) {
	payload, res, err := h.readPayload(w, r)
	if err != nil || payload == nil {
		return res, err
	}
	if !validation.IsUserPayload(payload) {
		return errorResponse(http.StatusBadRequest, msgMissingFields), nil
	}
	in, ok := validation.UserInputFrom(payload)
	if !ok {
		return errorResponse(http.StatusBadRequest, msgMissingFields), nil
	}
	created, err := h.store.CreateUser(r.Context(), in)
	if err != nil {
		return response{}, err
	}
	return jsonResponse(http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) (response, error) {
	if id == "" {
		return errorResponse(http.StatusNotFound, msgIDNotProvided), nil
	}
	if !validation.IsUUID(id) {
		return errorResponse(http.StatusBadRequest, fmt.Sprintf("User id %s is invalid (not uuid)", id)), nil
	}
	payload, res, err := h.readPayload(w, r)
	if err != nil || payload == nil {
		return res, err
	}
	if !validation.IsUserPatch(payload) {
		return errorResponse(http.StatusBadRequest, msgInvalidFields), nil
	}
	patch, ok := validation.UserPatchFrom(payload)
	if !ok {
		return errorResponse(http.StatusBadRequest, msgInvalidFields), nil
	}
	updated, found, err := h.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		return response{}, err
	}
	if !found {
		return notFound(id), nil
	}
	return jsonResponse(http.StatusOK, updated)
}

// readPayload reads and parses the request body. When the payload is nil the
// returned response (or error) is final.
func (h *Handler) readPayload(w http.ResponseWriter, r *http.Request) (any, response, error) {
	body := r.Body
	if h.maxBodyBytes > 0 && body != nil {
		body = http.MaxBytesReader(w, body, h.maxBodyBytes)
	}
	raw, err := readBody(r.Context(), body, h.bodyTimeout)
	switch {
	case errors.Is(err, ErrBodyTimeout):
		h.logger.Warn("user request body timed out", "method", r.Method, "path", r.URL.Path)
		return nil, errorResponse(http.StatusRequestTimeout, msgBodyTimeout), nil
	case errors.Is(err, ErrBodyTooLarge):
		return nil, errorResponse(http.StatusRequestEntityTooLarge, msgBodyTooLarge), nil
	case err != nil:
		return nil, response{}, err
	}
	payload, err := parsePayload(raw)
	if err != nil {
		return nil, errorResponse(http.StatusBadRequest, msgMalformedBody), nil
	}
	if payload == nil {
		// JSON null is well formed but never a valid user payload.
		msg := msgMissingFields
		if r.Method == http.MethodPut {
			msg = msgInvalidFields
		}
		return nil, errorResponse(http.StatusBadRequest, msg), nil
	}
	return payload, response{}, nil
}

func notFound(id string) response {
	return errorResponse(http.StatusNotFound, fmt.Sprintf("User with id %s not found", id))
}

func jsonResponse(status int, payload any) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode response: %w", err)
	}
	return response{status: status, body: body}, nil
}

func errorResponse(status int, message string) response {
	body, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		body = []byte(`{"error":"Internal Server Error"}`)
		status = http.StatusInternalServerError
	}
	return response{status: status, body: body}
}
