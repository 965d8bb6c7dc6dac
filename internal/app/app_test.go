package app

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.LoadFrom("")
	require.NoError(t, err)
	cfg.LLM.Type = "mock"
	cfg.Store.Mode = "memory"
	cfg.Redis.Addr = ""
	cfg.DB.Driver = "sqlite"
	cfg.DB.Path = "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg.Auth.JWTSecret = "app-secret"
	cfg.Auth.Issuer = ""

	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func call(t *testing.T, a *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("app-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	return rec
}

func TestTurnLogsToVaultEndToEnd(t *testing.T) {
	a := testApp(t)

	rec := call(t, a, nethttp.MethodPut, "/api/me", `{"email":"u1@example.com","time_zone":"UTC","vault_enabled":true}`)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, a, nethttp.MethodPost, "/api/vault/provision", "")
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Sleep"`)

	rec = call(t, a, nethttp.MethodPost, "/api/turn", `{"message":"slept 7 hours"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var turn struct {
		AgentID string `json:"agent_id"`
		Reply   string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, "sleep", turn.AgentID)
	assert.NotEmpty(t, turn.Reply)

	rec = call(t, a, nethttp.MethodGet, "/api/vault/context?partition=sleep&q=how+did+I+sleep", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hours=7")
}

func TestTurnWithoutVaultStillReplies(t *testing.T) {
	a := testApp(t)

	rec := call(t, a, nethttp.MethodPost, "/api/turn", `{"message":"slept 7 hours"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reply":"`)

	rec = call(t, a, nethttp.MethodPost, "/api/vault/provision", "")
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	a := testApp(t)
	a.Cfg.HTTP.Addr = "127.0.0.1:0"
	a.Server = wireServer(a.Log, a.Cfg, wireHandlers(a.Log, a.DB, a.Services, a.Repos), wireMiddleware(a.Log, a.Cfg), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewEngineRejectsUnknownType(t *testing.T) {
	_, err := newEngine(config.LLMConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}
