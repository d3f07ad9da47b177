package bootstrap

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recruit-backend/internal/llm"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:           "dev",
		JWTSecret:     "bootstrap-secret",
		LocalStoreDir: t.TempDir(),
	}
}

func TestBuildFallsBackToMemory(t *testing.T) {
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Scope != nil {
		t.Fatalf("expected memory backend")
	}
	if _, ok := app.LLM.(llm.Unconfigured); !ok {
		t.Fatalf("expected unconfigured gateway, got %T", app.LLM)
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/meta", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("meta: expected 200, got %d", resp.Code)
	}
	var meta map[string][]string
	if err := json.Unmarshal(resp.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if len(meta["cities"]) == 0 || len(meta["skills"]) == 0 {
		t.Fatalf("expected seeded reference data, got %v", meta)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestGatewayConfigurationIsFatalOutsideDev(t *testing.T) {
	_, err := buildGateway(config.Config{Env: "staging", LLMModel: "openai/gpt-4o-mini"})
	var cfgErr *llm.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if cfgErr.Setting != "OPENROUTER_API_KEY" {
		t.Fatalf("expected missing key to be reported, got %q", cfgErr.Setting)
	}
}

func TestGenerateWithoutLLMReportsConfiguration(t *testing.T) {
	cfg := devConfig(t)
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	token, err := auth.SignJWT(auth.Claims{Sub: "user-1"}, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBufferString(`{"type":"job","count":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "LLM_MODEL is not configured" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}
