package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/nutrilog/internal/memstore"
	"github.com/nutrilog/internal/service"
)

type testEnv struct {
	engine *gin.Engine
	store  *memstore.Store
	clock  *testclock.Clock
	ledger *service.Ledger
	uid    string
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	clk := testclock.NewClock(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	ledger := service.NewLedger(service.Repositories{
		Entries: store.Entries(),
		Foods:   store.Foods(),
		Goals:   store.Goals(),
		Users:   store.Users(),
	}, service.LedgerOptions{Clock: clk, Location: time.UTC, JWTSecret: "test-secret"})
	api := NewAPI(ledger, 0)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-session-secret"))))
	r.Use(api.LocaleMiddleware())
	r.POST("/api/auth/register", api.Register)
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)
	protected := r.Group("/api", api.AuthRequired())
	protected.GET("/me", api.CurrentUser)
	protected.GET("/days/:date", api.GetDay)
	protected.POST("/entries", api.CreateEntry)
	protected.DELETE("/entries/:id", api.DeleteEntry)
	protected.GET("/history", api.GetHistory)
	protected.GET("/foods/recent", api.RecentFoods)
	protected.GET("/goals", api.GetGoals)
	protected.PUT("/goals", api.UpdateGoals)

	user, err := ledger.Auth.Register(context.Background(), "tester", "password")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, _, err := ledger.Auth.IssueToken(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return &testEnv{engine: r, store: store, clock: clk, ledger: ledger, uid: user.UID, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) authed(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + e.token})
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
}
