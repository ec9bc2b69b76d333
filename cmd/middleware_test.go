package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
	"tradeAdmin/utils"
)

func bareApp(t *testing.T) *application {
	t.Helper()
	tokens, err := utils.NewManager(testSigningKey)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	discard := log.New(io.Discard, "", 0)
	app := &application{errorLog: discard, infoLog: discard, tokens: tokens}
	app.cfg.Session.CookieName = "session"
	return app
}

func TestLogRequestAssignsRequestID(t *testing.T) {
	app := bareApp(t)
	var seen string
	h := app.logRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = services.RequestIDFrom(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trade", nil))
	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("request id mismatch: ctx=%q header=%q", seen, rr.Header().Get("X-Request-ID"))
	}
}

func TestRecoverPanic(t *testing.T) {
	app := bareApp(t)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError || rr.Header().Get("Connection") != "close" {
		t.Fatalf("unexpected response %d %v", rr.Code, rr.Header())
	}
}

func TestLoadSession(t *testing.T) {
	app := bareApp(t)
	var who session.Provider
	h := app.loadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who = session.FromRequest(r)
	}))

	tok, err := app.tokens.NewJWT("u9", models.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/trade", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if who.UserID() != "u9" || !who.Role().IsAdmin() {
		t.Fatalf("unexpected session %+v", who)
	}

	req = httptest.NewRequest(http.MethodGet, "/trade", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if who.Role().IsAdmin() || who.UserID() != "" {
		t.Fatalf("invalid token must resolve to anonymous, got %+v", who)
	}
}

func TestMintToken(t *testing.T) {
	tok, err := mintToken(testSigningKey, "u1:admin")
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	tokens, _ := utils.NewManager(testSigningKey)
	claims, err := tokens.Parse(tok)
	if err != nil || claims.UserID != "u1" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v err=%v", claims, err)
	}
	if _, err := mintToken(testSigningKey, "nobody"); err == nil {
		t.Fatal("expected error without a role")
	}
}
