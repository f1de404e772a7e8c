package endpoint

import (
	"io"
	"net/http"

	"github.com/mnehpets/papyrus/geojson"
)

const textPlain = "text/plain; charset=utf-8"

// StringRenderer writes a string as the response body with an optional
// status code and content type.
//
// When ContentType is empty, StringRenderer defaults to
// "text/plain; charset=utf-8".
type StringRenderer struct {
	Status      int
	Body        string
	ContentType string
}

// setContentType sets the Content-Type header unless a processor set it
// explicitly. A value recorded by DefaultContentType is replaced.
func setContentType(w http.ResponseWriter, r *http.Request, contentType string) {
	if contentTypeState(w, r) == geojson.ContentTypeExplicit {
		return
	}
	if contentType == "" {
		contentType = textPlain
	}
	w.Header().Set("Content-Type", contentType)
}

// Render implements Renderer for StringRenderer.
//
// StringRenderer is terminal: it MUST call WriteHeader and MUST NOT call next.
func (sr *StringRenderer) Render(w http.ResponseWriter, r *http.Request) error {
	setContentType(w, r, sr.ContentType)
	status := sr.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if sr.Body == "" {
		return nil
	}
	_, err := io.WriteString(w, sr.Body)
	return err
}
