package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"chatty", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			logger, err := NewLogger(tt.in)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func newTestRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Get("/api/paper-sizes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newTestRouter(zap.New(core))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/paper-sizes/a4", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)

	ok := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(200), ok["status"])
	assert.Equal(t, "GET", ok["method"])
	assert.NotEmpty(t, ok["request_id"])

	missing := entries[1].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/api/paper-sizes/a4", missing["path"])
	assert.Equal(t, "/api/paper-sizes/{id}", missing["route"])
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newTestRouter(zap.New(core))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error"}`, rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.ErrorLevel, completed[0].Level)
}
