package geojson

import "regexp"

const (
	// DefaultJSONPParam is the query parameter consulted when Config does not
	// name one.
	DefaultJSONPParam = "callback"

	ContentTypeJSON  = "application/json"
	ContentTypeJSONP = "text/javascript"

	maxCallbackLength = 128
)

// callbackPattern accepts dotted JavaScript identifiers such as
// "jsonp_cb" or "jQuery.handlers.cb".
var callbackPattern = regexp.MustCompile(`^[$A-Za-z_][$0-9A-Za-z_]*(?:\.[$A-Za-z_][$0-9A-Za-z_]*)*$`)

// Mode is the output mode chosen by content negotiation.
type Mode int

const (
	ModeJSON Mode = iota
	ModeJSONP
)

func (m Mode) String() string {
	switch m {
	case ModeJSON:
		return "json"
	case ModeJSONP:
		return "jsonp"
	}
	return "unknown"
}

// ContentTypeState records who last set the response content type.
type ContentTypeState int

const (
	// ContentTypeUnset means nothing has set the content type.
	ContentTypeUnset ContentTypeState = iota
	// ContentTypeDefault means the host set a placeholder that may be
	// replaced.
	ContentTypeDefault
	// ContentTypeExplicit means some code chose the content type on purpose.
	// It is never overwritten.
	ContentTypeExplicit
)

func (s ContentTypeState) String() string {
	switch s {
	case ContentTypeUnset:
		return "unset"
	case ContentTypeDefault:
		return "default"
	case ContentTypeExplicit:
		return "explicit"
	}
	return "unknown"
}

// Context is the per-request view a Renderer needs from its host.
//
// Implementations are owned by the host and must not be shared between
// concurrent requests.
type Context interface {
	// QueryParam looks up a request query parameter by name.
	QueryParam(name string) (string, bool)
	// ContentTypeState reports whether the response content type may be
	// replaced.
	ContentTypeState() ContentTypeState
	// SetContentType sets the response content type.
	SetContentType(contentType string)
}

// Negotiation is the result of content negotiation.
type Negotiation struct {
	Mode Mode
	// Callback is the JSONP function name. Empty in ModeJSON.
	Callback string
}

// ContentType returns the content type advertised for the mode.
func (n Negotiation) ContentType() string {
	if n.Mode == ModeJSONP {
		return ContentTypeJSONP
	}
	return ContentTypeJSON
}

// Select chooses the output mode from the single query parameter named
// param. An empty param means DefaultJSONPParam.
//
// The mode is JSONP only when the parameter is present and holds a valid
// callback name. A missing, empty or malformed value selects plain JSON. A
// nil ctx selects plain JSON.
//
// Select does not modify ctx.
func Select(ctx Context, param string) Negotiation {
	if ctx == nil {
		return Negotiation{Mode: ModeJSON}
	}
	if param == "" {
		param = DefaultJSONPParam
	}
	cb, ok := ctx.QueryParam(param)
	if !ok || !ValidCallback(cb) {
		return Negotiation{Mode: ModeJSON}
	}
	return Negotiation{Mode: ModeJSONP, Callback: cb}
}

// Negotiate runs Select with the parameter named by cfg and then sets the
// content type on ctx, unless it was set explicitly.
func Negotiate(ctx Context, cfg Config) Negotiation {
	n := Select(ctx, cfg.JSONPParam)
	applyContentType(ctx, n)
	return n
}

// applyContentType makes the single content-type mutation attempt of a
// render call.
func applyContentType(ctx Context, n Negotiation) {
	if ctx == nil || ctx.ContentTypeState() == ContentTypeExplicit {
		return
	}
	ctx.SetContentType(n.ContentType())
}

// ValidCallback reports whether name is safe to emit as a JSONP function
// name: one or more dot-separated JavaScript identifiers, at most 128 bytes.
func ValidCallback(name string) bool {
	return name != "" && len(name) <= maxCallbackLength && callbackPattern.MatchString(name)
}
