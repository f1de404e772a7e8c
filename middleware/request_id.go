package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mnehpets/papyrus/endpoint"
)

// RequestIDHeader carries the request ID in requests and responses.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDProcessor tags each request with a UUID.
//
// An incoming X-Request-Id is kept when it is a valid UUID, so IDs can be
// followed across proxies. Otherwise a new one is generated. The ID is echoed
// in the response header and stored on the request context.
type RequestIDProcessor struct{}

// Process implements endpoint.Processor.
func (RequestIDProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	id := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	return next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
}

// RequestIDFromContext returns the ID set by RequestIDProcessor.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

var _ endpoint.Processor = RequestIDProcessor{}
