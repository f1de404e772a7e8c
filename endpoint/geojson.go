package endpoint

import (
	"io"
	"net/http"

	"github.com/mnehpets/papyrus/geojson"
)

// defaultRenderer uses the zero Config, which always validates.
var defaultRenderer, _ = geojson.NewRenderer(geojson.Config{})

// GeoJSONRenderer writes Value as JSON, or as JSONP when the request carries
// the renderer's callback parameter.
//
// GeoJSONRenderer is terminal: it MUST call WriteHeader and MUST NOT call next.
//
// Content-Type is set to "application/json" or "text/javascript" unless a
// processor set it explicitly; see NewContext.
//
// Error handling:
//   - If Value cannot be encoded, Render returns a 500 EndpointError wrapping
//     the *geojson.EncodingError before anything is written.
type GeoJSONRenderer struct {
	Status int
	Value  any

	// Renderer performs encoding and negotiation.
	// When nil, a Renderer with the zero geojson.Config is used.
	Renderer *geojson.Renderer
}

func (gr *GeoJSONRenderer) Render(w http.ResponseWriter, r *http.Request) error {
	rd := gr.Renderer
	if rd == nil {
		rd = defaultRenderer
	}

	body, err := rd.Render(gr.Value, NewContext(w, r))
	if err != nil {
		return newEndpointError(http.StatusInternalServerError, "", err)
	}

	status := gr.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err = io.WriteString(w, body)
	return err
}
