package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/mudauth/internal/apperror"
	"github.com/sakif/mudauth/internal/auth"
	"github.com/sakif/mudauth/internal/service"
)

// AuthHandler exposes the host's login/logout flow over the backend.
//
//   - HandleLogin  → verify credentials, issue a session token
//   - HandleLogout → revoke the current session token
//   - HandleMe     → return the logged-in user's profile
type AuthHandler struct {
	backend *service.Backend
	tokens  *auth.TokenService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they are constructed.
func NewAuthHandler(backend *service.Backend, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		backend: backend,
		tokens:  tokens,
		logger:  logger,
	}
}

// loginRequest is the JSON body of POST /api/auth/login. The password
// field is decoded, compared, and dropped — it never reaches a log line
// or a response.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLogin verifies credentials against the account database and, on
// success, issues a session token both as a response field and as an
// HttpOnly cookie.
//
// HTTP: POST /api/auth/login
//
// Every refusal — unknown user, inactive account, expired or foreign-
// scheme credential, wrong password, store outage — returns the same
// 401, so the response shape leaks nothing about which part failed.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("request body must be JSON with username and password"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("username and password are required"))
		return
	}

	if !h.backend.CheckPassword(r.Context(), h.backend.CleanUser(req.Username), req.Password) {
		h.logger.Info("login refused", slog.String("user", req.Username))
		writeError(w, apperror.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.tokens.Generate(req.Username)
	if err != nil {
		h.logger.Error("issuing session token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login succeeded", slog.String("user", req.Username))
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// HandleLogout revokes the current session token and clears the cookie.
//
// HTTP: POST /api/auth/logout
//
// Always 204: logging out with a missing or already-dead token is not an
// error worth reporting to the client.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.SessionToken(r); ok {
		h.tokens.Revoke(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the profile of the logged-in user. Runs behind
// auth.RequireSession.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid session required"))
		return
	}

	// The account can disappear or be deactivated between login and
	// this call — the database belongs to the game server. Absent means
	// the session's user no longer exists: report it, don't invent one.
	info, ok := h.backend.GetUserData(r.Context(), username, true)
	if !ok {
		writeError(w, apperror.NotFound("account", username))
		return
	}

	writeJSON(w, http.StatusOK, info)
}
