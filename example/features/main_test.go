package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/papyrus/geojson"
	"github.com/mnehpets/papyrus/middleware"
)

const trafalgarJSON = `{"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [-0.1276, 51.5072]}, "properties": {"title": "Trafalgar Square", "opened": "1844-05-01", "area_ha": 1.2}}`

func newTestMux(t *testing.T, cfg config) http.Handler {
	t.Helper()
	st, err := loadStore("")
	require.NoError(t, err)
	s, err := newServer(cfg, st)
	require.NoError(t, err)
	return s.routes(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFeatureEndpoint(t *testing.T) {
	h := newTestMux(t, config{})

	rec := get(h, "/features/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, trafalgarJSON, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = get(h, "/features/1?callback=show")
	assert.Equal(t, "show("+trafalgarJSON+");", rec.Body.String())
	assert.Equal(t, "text/javascript", rec.Header().Get("Content-Type"))

	rec = get(h, "/features/lake")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `{"type": "Feature", "id": "lake", `))

	rec = get(h, "/features/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "feature not found\n", rec.Body.String())
}

func TestFeatureEndpoint_Timestamp(t *testing.T) {
	rec := get(newTestMux(t, config{}), "/features/2")
	assert.Contains(t, rec.Body.String(), `"resurfaced": "2011-05-21T20:55:12"`)
	assert.Contains(t, rec.Body.String(), `"coordinates": [[-0.1419, 51.501], [-0.1246, 51.5007]]`)
}

func TestCollectionEndpoint(t *testing.T) {
	h := newTestMux(t, config{})

	rec := get(h, "/features?limit=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"type": "FeatureCollection", "features": [`+trafalgarJSON+`]}`, rec.Body.String())

	rec = get(h, "/features")
	assert.Equal(t, 3, strings.Count(rec.Body.String(), `"type": "Feature",`))

	rec = get(h, "/features?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(h, "/features?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfiguredJSONPParam(t *testing.T) {
	h := newTestMux(t, config{JSONPParam: "jsonp"})

	rec := get(h, "/features/1?callback=show")
	assert.Equal(t, trafalgarJSON, rec.Body.String())

	rec = get(h, "/features/1?jsonp=show")
	assert.Equal(t, "show("+trafalgarJSON+");", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := newTestMux(t, config{CORSOrigins: []string{"https://maps.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/features/1", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://maps.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(newTestMux(t, config{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNewServer_InvalidParam(t *testing.T) {
	_, err := newServer(config{JSONPParam: "bad param"}, &store{})
	assert.ErrorIs(t, err, geojson.ErrInvalidConfig)
}

func TestNewStore(t *testing.T) {
	_, err := newStore(geojson.Object{{Key: "type", Value: "FeatureCollection"}})
	assert.Error(t, err)

	_, err = newStore(map[string]any{"features": []any{
		map[string]any{"id": int64(1)},
		map[string]any{"id": "1"},
	}})
	assert.ErrorContains(t, err, "duplicate id")

	s, err := newStore(map[string]any{"features": []any{
		map[string]any{"id": "b"}, map[string]any{"id": "a"}, map[string]any{},
	}})
	require.NoError(t, err)
	assert.Len(t, s.features, 3)
	assert.Len(t, s.byID, 2)
	_, ok := s.feature("a")
	assert.True(t, ok)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(addrEnvVar, "")
	t.Setenv(jsonpParamEnvVar, "cb")
	t.Setenv(corsEnvVar, "https://a.example, ,https://b.example")
	t.Setenv(logLevelEnvVar, "debug")
	t.Setenv(logJSONEnvVar, "TRUE")

	cfg := loadConfig()
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "cb", cfg.JSONPParam)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogJSON)

	var buf bytes.Buffer
	newLogger(cfg, &buf).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(logLevelEnvVar, "loud")
	t.Setenv(logJSONEnvVar, "")

	cfg := loadConfig()
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LogJSON)

	var buf bytes.Buffer
	newLogger(cfg, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestRequestIDAndRateLimit(t *testing.T) {
	h := newTestMux(t, config{RateLimit: 1, RateBurst: 1})

	rec := get(h, "/features/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = get(h, "/features/1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestNewLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config{LogJSON: true}, &buf)

	var id string
	err := middleware.RequestIDProcessor{}.Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil),
		func(_ http.ResponseWriter, r *http.Request) error {
			id, _ = middleware.RequestIDFromContext(r.Context())
			logger.With("k", "v").InfoContext(r.Context(), "served")
			return nil
		})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
