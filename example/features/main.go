// Command features serves a feature collection as GeoJSON, with JSONP
// support for clients that load data through <script> tags.
//
// Routes:
//
//	GET /features        the collection; ?limit=N truncates it
//	GET /features/{id}   a single feature
//	GET /healthz         liveness check
//
// Append ?callback=name (or the parameter set by PAPYRUS_JSONP_PARAM) to get
// a JSONP response.
package main

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/mnehpets/papyrus/endpoint"
	"github.com/mnehpets/papyrus/geojson"
	"github.com/mnehpets/papyrus/middleware"
)

// CollectionParams are the query parameters of the collection endpoint.
type CollectionParams struct {
	Limit int `query:"limit"`
}

// FeatureParams identify a single feature.
type FeatureParams struct {
	ID string `path:"id"`
}

type server struct {
	store    *store
	renderer *geojson.Renderer
}

// CollectionEndpoint serves the whole collection.
func (s *server) CollectionEndpoint(_ http.ResponseWriter, _ *http.Request, params CollectionParams) (endpoint.Renderer, error) {
	if params.Limit < 0 {
		return nil, endpoint.Error(http.StatusBadRequest, "limit must not be negative", nil)
	}
	return &endpoint.GeoJSONRenderer{
		Value:    s.store.collection(params.Limit),
		Renderer: s.renderer,
	}, nil
}

// FeatureEndpoint serves one feature by id.
func (s *server) FeatureEndpoint(_ http.ResponseWriter, _ *http.Request, params FeatureParams) (endpoint.Renderer, error) {
	f, ok := s.store.feature(params.ID)
	if !ok {
		return nil, endpoint.Error(http.StatusNotFound, "feature not found", nil)
	}
	return &endpoint.GeoJSONRenderer{Value: f, Renderer: s.renderer}, nil
}

// HealthEndpoint reports liveness.
func HealthEndpoint(_ http.ResponseWriter, _ *http.Request, _ struct{}) (endpoint.Renderer, error) {
	return &endpoint.StringRenderer{Body: "ok"}, nil
}

func newServer(cfg config, st *store) (*server, error) {
	rd, err := geojson.NewRenderer(geojson.Config{JSONPParam: cfg.JSONPParam})
	if err != nil {
		return nil, err
	}
	return &server{store: st, renderer: rd}, nil
}

// routes registers the endpoints. CORS is enabled when origins are
// configured and rate limiting when a rate is set.
func (s *server) routes(cfg config, logger *slog.Logger) http.Handler {
	opts := []middleware.FeatureHeadersOption{}
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, middleware.WithCORS(&middleware.CORSConfig{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         3600,
		}))
	}
	processors := []endpoint.Processor{middleware.RequestIDProcessor{}}
	if cfg.RateLimit > 0 {
		processors = append(processors, middleware.NewRateLimitProcessor(cfg.RateLimit, cfg.RateBurst))
	}
	processors = append(processors, middleware.NewFeatureHeadersProcessor(opts...))

	collection := endpoint.Handler(s.CollectionEndpoint, processors...)
	collection.Logger = logger
	feature := endpoint.Handler(s.FeatureEndpoint, processors...)
	feature.Logger = logger

	mux := http.NewServeMux()
	mux.Handle("GET /features", collection)
	mux.Handle("OPTIONS /features", collection)
	mux.Handle("GET /features/{id}", feature)
	mux.Handle("OPTIONS /features/{id}", feature)
	mux.Handle("GET /healthz", endpoint.HandleFunc(HealthEndpoint))

	var h http.Handler = mux
	if cfg.AccessLog {
		h = handlers.CombinedLoggingHandler(os.Stdout, h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)(h)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := loadConfig()
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	st, err := loadStore(cfg.Features)
	if err != nil {
		logger.Error("failed to load features", slog.Any("error", err))
		os.Exit(1)
	}
	s, err := newServer(cfg, st)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("listening",
		slog.String("addr", cfg.Addr),
		slog.Int("features", len(st.features)),
		slog.String("jsonp_param", s.renderer.Param()),
		slog.String("cors", strings.Join(cfg.CORSOrigins, ",")),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
