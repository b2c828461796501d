package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderlifecycle/config"

	"github.com/prometheus/client_golang/prometheus"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "orders", Version: "test", Env: "test", Locale: "es"},
		Server:   config.ServerConfig{Port: "0"},
		Database: config.DatabaseConfig{Type: "memory"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	app, err := NewBuilder(memoryConfig()).WithRegistry(prometheus.NewRegistry()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	body := `{"externalReferenceId":"EC-1","channel":"Store","purchaseDate":"2025-03-10T12:00:00Z",
		"totalValue":10,"buyer":{"firstName":"Ana","lastName":"Diaz","documentNumber":"30111222","phone":"+5491155556666"},
		"products":[{"sku":"A","name":"A","price":5,"quantity":2}]}`

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/health/ready", "", http.StatusOK},
		{http.MethodPost, "/api/v1/orders", body, http.StatusCreated},
		{http.MethodGet, "/api/v1/orders/1", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		app.Handler().ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestBuild_UnsupportedStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Type = "oracle"
	if _, err := NewBuilder(cfg).Build(context.Background()); err == nil {
		t.Fatal("expected an error for an unsupported store")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig()
	cfg.Metrics.Enabled = false
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeout = time.Second
	app, err := NewBuilder(cfg).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Errorf("Run() after cancel = %v", err)
	}
}
