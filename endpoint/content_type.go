package endpoint

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mnehpets/papyrus/geojson"
)

type defaultContentTypeKey struct{}

// DefaultContentType returns a Processor that sets the Content-Type header to
// contentType and records it as the host default for the request.
//
// Renderers treat a header still holding the recorded default as replaceable,
// while any other non-empty value counts as set explicitly. A processor that
// later sets the header to exactly the default value cannot be told apart
// from the default.
func DefaultContentType(contentType string) Processor {
	return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
		w.Header().Set("Content-Type", contentType)
		ctx := context.WithValue(r.Context(), defaultContentTypeKey{}, contentType)
		return next(w, r.WithContext(ctx))
	})
}

// NewContext adapts a response and its request to geojson.Context.
//
// Query parameters come from r.URL. The content type state is derived from
// the Content-Type header of w:
//   - empty: geojson.ContentTypeUnset
//   - equal to the value recorded by DefaultContentType: geojson.ContentTypeDefault
//   - anything else: geojson.ContentTypeExplicit
func NewContext(w http.ResponseWriter, r *http.Request) geojson.Context {
	return &responseContext{w: w, r: r}
}

type responseContext struct {
	w     http.ResponseWriter
	r     *http.Request
	query url.Values
}

func (c *responseContext) QueryParam(name string) (string, bool) {
	if c.query == nil {
		if c.r == nil || c.r.URL == nil {
			return "", false
		}
		c.query = c.r.URL.Query()
	}
	vals, ok := c.query[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (c *responseContext) ContentTypeState() geojson.ContentTypeState {
	return contentTypeState(c.w, c.r)
}

func (c *responseContext) SetContentType(contentType string) {
	c.w.Header().Set("Content-Type", contentType)
}

func contentTypeState(w http.ResponseWriter, r *http.Request) geojson.ContentTypeState {
	ct := w.Header().Get("Content-Type")
	if ct == "" {
		return geojson.ContentTypeUnset
	}
	if r != nil {
		if def, ok := r.Context().Value(defaultContentTypeKey{}).(string); ok && def == ct {
			return geojson.ContentTypeDefault
		}
	}
	return geojson.ContentTypeExplicit
}
