package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mnehpets/papyrus/endpoint"
)

// FeatureHeadersProcessor sets the response headers a public feature API
// needs so its JSON and JSONP output can be consumed safely from other
// origins.
//
// Default configuration for NewFeatureHeadersProcessor:
//   - X-Content-Type-Options: nosniff
//   - Referrer-Policy: no-referrer
//   - Cross-Origin-Resource-Policy: cross-origin
//   - CORS: disabled
//
// nosniff matters for JSONP: browsers refuse to run a script whose
// Content-Type is not a JavaScript type, so a JSON response cannot be
// loaded through a <script> tag by mistake.
//
// When CORS is configured, preflight (OPTIONS) requests are answered with
// 204 No Content and never reach the endpoint.
type FeatureHeadersProcessor struct {
	// ContentTypeOptions sets X-Content-Type-Options: nosniff.
	ContentTypeOptions bool

	// ReferrerPolicy sets the Referrer-Policy header.
	// Set to empty string to disable.
	ReferrerPolicy string

	// ResourcePolicy sets the Cross-Origin-Resource-Policy header.
	// Set to empty string to disable.
	ResourcePolicy string

	// CORS configures Cross-Origin Resource Sharing headers.
	// Set to nil to disable CORS headers.
	CORS *CORSConfig
}

// CORSConfig configures Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to read responses.
	// "*" allows any origin unless AllowCredentials is set.
	AllowedOrigins []string

	// AllowedMethods is sent as Access-Control-Allow-Methods on preflight.
	AllowedMethods []string

	// AllowedHeaders is sent as Access-Control-Allow-Headers on preflight.
	AllowedHeaders []string

	// ExposedHeaders is sent as Access-Control-Expose-Headers.
	ExposedHeaders []string

	// AllowCredentials indicates whether credentials (cookies, auth headers) can be sent.
	AllowCredentials bool

	// MaxAge is how long, in seconds, preflight results can be cached.
	MaxAge int
}

// FeatureHeadersOption is a functional option for configuring FeatureHeadersProcessor.
type FeatureHeadersOption func(*FeatureHeadersProcessor)

// NewFeatureHeadersProcessor creates a FeatureHeadersProcessor with defaults
// for a read-only feature API.
func NewFeatureHeadersProcessor(opts ...FeatureHeadersOption) *FeatureHeadersProcessor {
	p := &FeatureHeadersProcessor{
		ContentTypeOptions: true,
		ReferrerPolicy:     "no-referrer",
		ResourcePolicy:     "cross-origin",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithContentTypeOptions enables or disables X-Content-Type-Options: nosniff.
func WithContentTypeOptions(enabled bool) FeatureHeadersOption {
	return func(p *FeatureHeadersProcessor) {
		p.ContentTypeOptions = enabled
	}
}

// WithReferrerPolicy sets the Referrer-Policy header.
func WithReferrerPolicy(policy string) FeatureHeadersOption {
	return func(p *FeatureHeadersProcessor) {
		p.ReferrerPolicy = policy
	}
}

// WithResourcePolicy sets the Cross-Origin-Resource-Policy header.
// Common values: same-origin, same-site, cross-origin
func WithResourcePolicy(policy string) FeatureHeadersOption {
	return func(p *FeatureHeadersProcessor) {
		p.ResourcePolicy = policy
	}
}

// WithCORS configures CORS headers for cross-origin access.
func WithCORS(config *CORSConfig) FeatureHeadersOption {
	return func(p *FeatureHeadersProcessor) {
		p.CORS = config
	}
}

// Process implements endpoint.Processor.
func (p *FeatureHeadersProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	if p.ContentTypeOptions {
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}
	if p.ReferrerPolicy != "" {
		w.Header().Set("Referrer-Policy", p.ReferrerPolicy)
	}
	if p.ResourcePolicy != "" {
		w.Header().Set("Cross-Origin-Resource-Policy", p.ResourcePolicy)
	}

	if p.CORS != nil {
		setCORSHeaders(w, r, p.CORS)

		// A preflight is an OPTIONS request with Origin and
		// Access-Control-Request-Method.
		if r.Method == http.MethodOptions &&
			r.Header.Get("Origin") != "" &&
			r.Header.Get("Access-Control-Request-Method") != "" {
			return endpoint.Error(http.StatusNoContent, "", nil)
		}
	}

	return next(w, r)
}

// setCORSHeaders sets CORS headers based on the configuration.
func setCORSHeaders(w http.ResponseWriter, r *http.Request, config *CORSConfig) {
	if config == nil {
		return
	}

	// Without an Origin header this is not a cross-origin request.
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	for _, allowed := range config.AllowedOrigins {
		if allowed == "*" {
			// '*' is never valid together with credentials.
			if config.AllowCredentials {
				continue
			}
			w.Header().Set("Access-Control-Allow-Origin", "*")
			break
		} else if allowed == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			break
		}
	}

	if config.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if len(config.ExposedHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
	}

	if r.Method == http.MethodOptions {
		if len(config.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
		}
		if len(config.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
		}
		if config.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
	}
}

var _ endpoint.Processor = (*FeatureHeadersProcessor)(nil)
