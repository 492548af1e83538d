package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FULFILLMENT_TEST_ENV", "value")

	assert.Equal(t, "value", getEnv("FULFILLMENT_TEST_ENV", "default"))
	assert.Equal(t, "default", getEnv("FULFILLMENT_MISSING_ENV", "default"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("MONGODB_URI", "mongodb://example:27017/?replicaSet=rs0")
	t.Setenv("MONGODB_DATABASE", "fulfillment_test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOCK_TTL", "45s")
	t.Setenv("EXCEPTION_UNIT_PENALTY", "12.50")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, StorageMongo, cfg.StorageDriver)
	assert.Equal(t, "mongodb://example:27017/?replicaSet=rs0", cfg.MongoDB.URI)
	assert.Equal(t, "fulfillment_test", cfg.MongoDB.Database)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 45*time.Second, cfg.LockTTL)
	assert.True(t, decimal.RequireFromString("12.5").Equal(cfg.UnitPenalty))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("EXCEPTION_UNIT_PENALTY", "")
	t.Setenv("LOCK_TTL", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Redis)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, "25.00", cfg.UnitPenalty.StringFixed(2))
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"lock ttl", "LOCK_TTL", "soon"},
		{"penalty not a number", "EXCEPTION_UNIT_PENALTY", "abc"},
		{"negative penalty", "EXCEPTION_UNIT_PENALTY", "-1"},
		{"storage driver", "STORAGE_DRIVER", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := loadConfig()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

type fakeTracerProvider struct {
	shutdownCalls int
}

func (f *fakeTracerProvider) Shutdown(ctx context.Context) error {
	f.shutdownCalls++
	return nil
}

type fakeServer struct {
	handler       http.Handler
	listenCalls   chan struct{}
	shutdownCalls int
}

func (f *fakeServer) ListenAndServe() error {
	close(f.listenCalls)
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdownCalls++
	return nil
}

func TestRun_MemoryStorage(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	tp := &fakeTracerProvider{}
	srv := &fakeServer{listenCalls: make(chan struct{})}

	deps := appDependencies{
		initTracing: func(ctx context.Context, cfg *tracing.Config) (tracerProvider, error) {
			return tp, nil
		},
		newHTTPServer: func(addr string, handler http.Handler) httpServer {
			srv.handler = handler
			return srv
		},
	}
	config := &Config{
		ServerAddr:    ":0",
		StorageDriver: StorageMemory,
		LockTTL:       time.Second,
		UnitPenalty:   decimal.RequireFromString("25.00"),
	}

	signalCh := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), config, deps, signalCh) }()

	select {
	case <-srv.listenCalls:
	case <-time.After(5 * time.Second):
		t.Fatal("server was not started")
	}

	w := newRecorder(srv.handler, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	w = newRecorder(srv.handler, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	w = newRecorder(srv.handler, http.MethodPost, "/api/v1/rotas")
	assert.Equal(t, http.StatusCreated, w.Code)

	signalCh <- syscall.SIGTERM
	require.NoError(t, <-done)
	assert.Equal(t, 1, srv.shutdownCalls)
	assert.Equal(t, 1, tp.shutdownCalls)
}

func newRecorder(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}
