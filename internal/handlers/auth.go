package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/middleware"
	"github.com/xswkr/chartpattern-backend/pkg/utils"
)

// AuthHandler serves local-credential auth and the session endpoints.
type AuthHandler struct {
	creds    *auth.Credentials
	sessions *auth.Sessions
	users    auth.UserStore
}

func NewAuthHandler(creds *auth.Credentials, sessions *auth.Sessions, users auth.UserStore) *AuthHandler {
	return &AuthHandler{creds: creds, sessions: sessions, users: users}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Username, password, and name are required")
		return
	}

	_, err := h.creds.Register(r.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		var vErr *utils.ValidationError
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already exists")
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Message)
		default:
			log.Printf("register failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Login handles POST /api/auth/login. On success a session cookie is set.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.creds.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		log.Printf("session issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user.Public(),
	})
}

// Logout handles POST /api/auth/logout. Revokes the presented session and
// clears the cookie; always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			log.Printf("session revoke failed: %v", err)
		}
	}
	clearSessionCookie(w)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == auth.Anonymous {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"user": nil})
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"user": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
}

// setSessionCookie writes the session cookie. HttpOnly keeps it away from
// scripts; SameSite=None lets it ride the OAuth redirect back from the
// provider, which requires Secure.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
