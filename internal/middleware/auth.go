package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/savesmart/internal/auth"
	"github.com/dukerupert/savesmart/internal/store"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "savesmart_session"
	DeviceCookieName  = "savesmart_device"

	deviceCookieMaxAge = 400 * 24 * time.Hour
)

// Authenticate validates the session cookie when present and populates
// AuthContext. Requests without a valid session pass through anonymously.
func Authenticate(sessionStore *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessionStore.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureDevice tags each request with a long-lived installation id, issuing
// a new device cookie when the browser has none.
func EnsureDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := ""
		if cookie, err := r.Cookie(DeviceCookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				deviceID = cookie.Value
			}
		}
		if deviceID == "" {
			deviceID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookieName,
				Value:    deviceID,
				Path:     "/",
				MaxAge:   int(deviceCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(auth.WithDevice(r.Context(), deviceID)))
	})
}
