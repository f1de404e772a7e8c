package geojson

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidConfig is wrapped by errors returned from NewRenderer.
var ErrInvalidConfig = errors.New("geojson: invalid config")

var paramPattern = regexp.MustCompile(`^[A-Za-z0-9_.~-]+$`)

// Config configures a Renderer.
type Config struct {
	// JSONPParam names the query parameter that triggers JSONP output.
	// Empty means DefaultJSONPParam. Naming a parameter disables the
	// default one.
	JSONPParam string
}

// Renderer renders values as JSON or JSONP text. It is immutable and safe
// for concurrent use.
type Renderer struct {
	cfg Config
}

// RenderFunc is the function form of Renderer.Render.
type RenderFunc func(v any, ctx Context) (string, error)

// NewRenderer validates cfg and returns a Renderer bound to it.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.JSONPParam != "" && !paramPattern.MatchString(cfg.JSONPParam) {
		return nil, fmt.Errorf("%w: JSONP parameter %q must contain only letters, digits, '_', '.', '~' or '-'", ErrInvalidConfig, cfg.JSONPParam)
	}
	if cfg.JSONPParam == "" {
		cfg.JSONPParam = DefaultJSONPParam
	}
	return &Renderer{cfg: cfg}, nil
}

// MakeRenderer is NewRenderer returning the bound Render method.
func MakeRenderer(cfg Config) (RenderFunc, error) {
	r, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Param returns the query parameter that triggers JSONP output.
func (r *Renderer) Param() string {
	return r.cfg.JSONPParam
}

// Render encodes v and returns either the JSON text or, when the request
// asks for JSONP, "callback(json);".
//
// On success the content type of ctx is set to application/json or
// text/javascript unless ctx reports it was set explicitly. If encoding
// fails Render returns an *EncodingError and leaves ctx untouched.
// A nil ctx renders plain JSON.
func (r *Renderer) Render(v any, ctx Context) (string, error) {
	body, err := Marshal(v)
	if err != nil {
		return "", err
	}

	n := Negotiate(ctx, r.cfg)
	if n.Mode == ModeJSONP {
		return n.Callback + "(" + string(body) + ");", nil
	}
	return string(body), nil
}
