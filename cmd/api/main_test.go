package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/realty-crm/internal/auth"
	"github.com/wolfman30/realty-crm/internal/clients"
	appconfig "github.com/wolfman30/realty-crm/internal/config"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

func TestSetupMetricsExposesPropertyMetrics(t *testing.T) {
	registry, handler := setupMetrics()
	if registry == nil || handler == nil {
		t.Fatalf("expected non-nil registry and handler")
	}
	m := metrics.NewPropertyMetrics(registry)
	m.ObserveCacheLookup(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "realty_properties_cache_lookups_total") {
		t.Fatalf("expected cache lookup counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go runtime collector to be registered")
	}
}

func TestSetupStoresFallBackToMemory(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{}

	users, closeUsers := setupUserStore(context.Background(), cfg, logger)
	defer closeUsers()
	if _, ok := users.(*auth.InMemoryUserStore); !ok {
		t.Fatalf("expected in-memory user store, got %T", users)
	}

	repo, closeClients := setupClientRepository(context.Background(), cfg, logger)
	defer closeClients()
	if _, ok := repo.(*clients.InMemoryRepository); !ok {
		t.Fatalf("expected in-memory client repository, got %T", repo)
	}
}
