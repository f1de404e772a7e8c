package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/mnehpets/papyrus/middleware"
)

const (
	addrEnvVar       = "PAPYRUS_ADDR"
	jsonpParamEnvVar = "PAPYRUS_JSONP_PARAM"
	featuresEnvVar   = "PAPYRUS_FEATURES"
	corsEnvVar       = "PAPYRUS_CORS_ORIGINS"
	rateEnvVar       = "PAPYRUS_RATE_LIMIT"
	burstEnvVar      = "PAPYRUS_RATE_BURST"
	accessLogEnvVar  = "PAPYRUS_ACCESS_LOG"
	logLevelEnvVar   = "LOG_LEVEL"
	logJSONEnvVar    = "LOG_JSON"

	defaultAddr  = ":8080"
	defaultBurst = 20
)

// config holds the server settings read from the environment.
type config struct {
	Addr        string
	JSONPParam  string
	Features    string // empty serves the embedded sample collection
	CORSOrigins []string
	RateLimit   float64 // requests per second per client; 0 disables
	RateBurst   int
	AccessLog   bool
	LogLevel    slog.Level
	LogJSON     bool
}

func loadConfig() config {
	var origins []string
	for _, o := range strings.Split(os.Getenv(corsEnvVar), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return config{
		Addr:        envVarOrString(addrEnvVar, defaultAddr),
		JSONPParam:  os.Getenv(jsonpParamEnvVar),
		Features:    os.Getenv(featuresEnvVar),
		CORSOrigins: origins,
		RateLimit:   envVarOrFloat(rateEnvVar, 0),
		RateBurst:   envVarOrInt(burstEnvVar, defaultBurst),
		AccessLog:   envVarOrBool(accessLogEnvVar, false),
		LogLevel:    envVarOrLogLevel(logLevelEnvVar, slog.LevelInfo),
		LogJSON:     envVarOrBool(logJSONEnvVar, false),
	}
}

// envVarOrString gets the environment variable for the provided key or the provided default string.
func envVarOrString(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

// envVarOrBool returns whether the variable is "true" or "false", ignoring
// case, or def for anything else.
func envVarOrBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

func envVarOrInt(key string, def int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return val
}

func envVarOrFloat(key string, def float64) float64 {
	val, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || val < 0 {
		return def
	}
	return val
}

func envVarOrLogLevel(key string, def slog.Level) slog.Level {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(val)); err != nil {
		return def
	}
	return lvl
}

// newLogger returns a JSON logger for production or a tint logger for
// reading in a terminal. Records logged with a request context carry its
// request_id.
func newLogger(cfg config, out io.Writer) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(cfg.LogLevel)

	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02 15:04:05.000",
		})
	}
	return slog.New(requestIDHandler{handler})
}

type requestIDHandler struct {
	slog.Handler
}

func (h requestIDHandler) Handle(ctx context.Context, rec slog.Record) error {
	if id, ok := middleware.RequestIDFromContext(ctx); ok {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{h.Handler.WithGroup(name)}
}
