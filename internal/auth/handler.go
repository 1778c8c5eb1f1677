package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const stateCookie = "oauth_state"

type Handler struct {
	service *Service
	secure  bool
}

// NewHandler builds the auth endpoints. secure marks cookies Secure and
// should be set when served over HTTPS.
func NewHandler(service *Service, secure bool) *Handler {
	return &Handler{service: service, secure: secure}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	url, state, err := h.service.AuthCodeURL()
	if err != nil {
		if errors.Is(err, ErrOAuthDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("start login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var cookieState string
	if c, err := r.Cookie(stateCookie); err == nil {
		cookieState = c.Value
	}
	h.clearCookie(w, stateCookie, "/auth")

	if msg := r.URL.Query().Get("error"); msg != "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "google sign-in failed: " + msg})
		return
	}
	if err := h.service.VerifyState(r.URL.Query().Get("state"), cookieState); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid state"})
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	token, user, err := h.service.CompleteLogin(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrEmailNotVerified) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("google callback failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "sign-in failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(SessionTTL),
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("user signed in", "user", user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, SessionCookie, "/")
	w.WriteHeader(http.StatusNoContent)
}

// Me requires AuthMiddleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
			return
		}
		slog.Error("get current user failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
