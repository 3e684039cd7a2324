package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mudauth/internal/apperror"
	"github.com/sakif/mudauth/internal/model"
	"github.com/sakif/mudauth/internal/service"
)

// defaultPageLimit caps a listing request that doesn't say how many rows
// it wants. Explicit limit=0 is honored as "no rows" — it is not an
// alias for this default.
const defaultPageLimit = 50

// UserHandler exposes the backend's read-only user metadata.
//
//   - HandleList         → page of users, store order
//   - HandleCount        → active-account count
//   - HandleGet          → single user with derived groups
//   - HandleCapabilities → the backend's static capability flags
type UserHandler struct {
	backend *service.Backend
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler backed by the given backend.
func NewUserHandler(backend *service.Backend, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		backend: backend,
		logger:  logger,
	}
}

// userPageResponse carries both shapes a consumer might want: the
// name-keyed mapping from the host contract, and the store-ordered page
// (Go maps — and JSON objects — don't guarantee iteration order).
type userPageResponse struct {
	Users map[string]*model.UserInfo `json:"users"`
	Order []string                   `json:"order"`
}

// HandleList returns a page of active users.
//
// HTTP: GET /api/users?start=0&limit=50
//
// Query parameters beyond start and limit are accepted and ignored —
// the backend takes a filter for contract parity but does not apply it.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	start, err := queryInt(r, "start", 0)
	if err != nil {
		writeError(w, apperror.ValidationFailed("start must be a non-negative integer"))
		return
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		writeError(w, apperror.ValidationFailed("limit must be a non-negative integer"))
		return
	}

	// Remaining query params travel as the (unapplied) filter so the
	// route exercises the same contract surface the host would.
	filter := make(map[string]string)
	for key, values := range r.URL.Query() {
		if key == "start" || key == "limit" {
			continue
		}
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}

	page := h.backend.RetrieveUserPage(r.Context(), start, limit, filter)

	resp := userPageResponse{
		Users: make(map[string]*model.UserInfo, len(page)),
		Order: make([]string, 0, len(page)),
	}
	for i := range page {
		resp.Users[page[i].Name] = &page[i]
		resp.Order = append(resp.Order, page[i].Name)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCount returns the active-account count.
//
// HTTP: GET /api/users/count
//
// The count is advisory: on a store failure it is 0, indistinguishable
// from an empty store, and nothing anywhere gates authorization on it.
func (h *UserHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count := h.backend.GetUserCount(r.Context(), nil)
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// HandleGet returns a single user with derived groups.
//
// HTTP: GET /api/users/{name}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, apperror.ValidationFailed("user name is required"))
		return
	}

	info, ok := h.backend.GetUserData(r.Context(), h.backend.CleanUser(name), true)
	if !ok {
		writeError(w, apperror.NotFound("account", name))
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// HandleCapabilities returns the backend's static capability flags.
//
// HTTP: GET /api/backend/capabilities
func (h *UserHandler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Capabilities())
}

// queryInt reads a non-negative integer query parameter, with a default
// when the parameter is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(key + " must be a non-negative integer")
	}
	return n, nil
}
