// Package geojson renders structured values, typically GeoJSON Features,
// into JSON or JSONP text for HTTP responses.
//
// The package is split into three pieces that compose per render call:
//
//   - Encode converts an Input Value into a JSON Value tree. Besides the
//     plain JSON kinds it understands exact decimals (shopspring/decimal,
//     math/big), calendar dates (civil.Date) and timestamps (civil.DateTime,
//     time.Time).
//   - Select and Negotiate decide between plain JSON and JSONP output and
//     set the response content type, but only when nothing else has set it
//     explicitly.
//   - NewRenderer builds an immutable Renderer from a Config.
//
// # Basic Usage
//
//	r, err := geojson.NewRenderer(geojson.Config{})
//	if err != nil {
//	    return err
//	}
//	body, err := r.Render(geojson.Feature{
//	    ID:         1,
//	    Geometry:   map[string]any{"type": "Point", "coordinates": []float64{53, -4}},
//	    Properties: map[string]any{"title": "Dict 1"},
//	}, ctx)
//
// ctx is any Context implementation; package endpoint provides one for
// net/http.
//
// # Output Format
//
// Output is written on a single line. Members and elements are separated by
// ", " and keys are followed by ": ", for example
// {"type": "Point", "coordinates": [53, -4]}. Object keeps insertion order;
// Go maps are written with sorted keys.
//
// # Concurrency
//
// A Renderer holds no mutable state and may be shared between goroutines.
package geojson
