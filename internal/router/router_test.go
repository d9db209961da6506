package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"email-agent-go/internal/handler"
	"email-agent-go/internal/inbox"
	"email-agent-go/internal/llm"
	"email-agent-go/internal/metrics"
	"email-agent-go/internal/repository"
	"email-agent-go/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	agent := service.NewAgentService(
		inbox.NewStore(filepath.Join(t.TempDir(), "inbox.json")),
		repository.NewMemoryStore(),
		llm.NewDispatcher(nil, time.Second, m),
		256,
		m,
	)
	return SetupRouter(handler.NewHandlers(agent, nil, reg))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/inbox", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/drafts", nil)
	req.Header.Set("Origin", "http://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestRecoveryAndUnknownRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestLogging(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	r := newTestRouter(t)

	for _, tc := range []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/inbox", http.StatusOK, logrus.InfoLevel},
		{"/drafts/missing", http.StatusNotFound, logrus.WarnLevel},
	} {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("User-Agent", "dashboard/1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, tc.status, w.Code)

		var entry *logrus.Entry
		for _, e := range hook.AllEntries() {
			if e.Message == "HTTP request" {
				entry = e
			}
		}
		require.NotNil(t, entry, tc.path)
		assert.Equal(t, tc.level, entry.Level)
		assert.Equal(t, tc.path, entry.Data["path"])
		assert.Equal(t, http.MethodGet, entry.Data["method"])
		assert.Equal(t, tc.status, entry.Data["status"])
		assert.Equal(t, "dashboard/1.0", entry.Data["user_agent"])
	}
}
