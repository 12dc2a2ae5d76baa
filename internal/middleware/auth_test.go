package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/savesmart/internal/auth"
	"github.com/dukerupert/savesmart/internal/database"
	"github.com/dukerupert/savesmart/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewUserStore(db)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticateNoCookie(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	reached := false
	handler := Authenticate(ss, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if _, ok := auth.FromContext(r.Context()); ok {
			t.Error("expected anonymous request")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !reached {
		t.Error("anonymous request should reach handler")
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	handler := Authenticate(ss, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserID(r.Context()) != 0 {
			t.Error("invalid token should not authenticate")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthenticateValidSession(t *testing.T) {
	ss, us := setupAuthMiddlewareDB(t)
	ctx := context.Background()

	u, _ := us.Create(ctx, "aisyah@example.com", "Aisyah", "hash")
	sess, _ := ss.Create(ctx, u.ID)

	var gotAC auth.AuthContext
	handler := Authenticate(ss, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", gotAC.UserID, u.ID)
	}
	if gotAC.SessionID != sess.ID {
		t.Errorf("SessionID = %d, want %d", gotAC.SessionID, sess.ID)
	}
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not logged in"`) {
		t.Errorf("body = %q", rec.Body.String())
	}

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestEnsureDeviceIssuesCookie(t *testing.T) {
	var got string
	handler := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.DeviceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got == "" {
		t.Fatal("expected device id in context")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != DeviceCookieName || cookies[0].Value != got {
		t.Errorf("cookies = %+v, want %s=%s", cookies, DeviceCookieName, got)
	}
}

func TestEnsureDeviceKeepsExisting(t *testing.T) {
	const id = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	var got string
	handler := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.DeviceID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: id})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != id {
		t.Errorf("device id = %q, want %q", got, id)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing device should not get a new cookie")
	}
}

func TestEnsureDeviceReplacesGarbage(t *testing.T) {
	var got string
	handler := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.DeviceID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "../../etc"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == "../../etc" || got == "" {
		t.Errorf("device id = %q, want a fresh uuid", got)
	}
}
