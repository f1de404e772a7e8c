package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/gorilla/schema"
)

var (
	queryDecoder = newDecoder("query")
	pathDecoder  = newDecoder("path")
)

func newDecoder(tag string) *schema.Decoder {
	dec := schema.NewDecoder()
	dec.SetAliasTag(tag)
	dec.IgnoreUnknownKeys(true)
	return dec
}

// Unmarshal populates dst (must be a non-nil pointer) from the request.
//
// Supported sources:
//   - query params: r.URL.Query() via `query:"name"`
//   - path params: r.PathValue() via `path:"name"`
//
// Field conversion is done by gorilla/schema, so its tag options such as
// `query:"name,required"` and `query:"-"` apply. Path params are applied after
// query params and take precedence. Fields with no data are left unchanged.
//
// A value that cannot be converted to its field type yields a 400
// EndpointError.
func Unmarshal(r *http.Request, dst any) error {
	if r == nil {
		return newEndpointError(http.StatusInternalServerError, "", errors.New("endpoint: decode: nil request"))
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return newEndpointError(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must be a non-nil pointer"))
	}

	// Support *P where P may be a struct or pointer-to-struct.
	root := v.Elem()
	if root.Kind() == reflect.Pointer {
		if root.IsNil() {
			root.Set(reflect.New(root.Type().Elem()))
		}
		root = root.Elem()
	}
	if root.Kind() != reflect.Struct {
		return newEndpointError(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must point to a struct (or pointer to struct)"))
	}
	target := root.Addr().Interface()

	q := url.Values{}
	if r.URL != nil {
		q = r.URL.Query()
	}
	if err := queryDecoder.Decode(target, q); err != nil {
		return translateDecodeError("query", err)
	}

	if pv := pathValues(r, root.Type()); len(pv) > 0 {
		if err := pathDecoder.Decode(target, pv); err != nil {
			return translateDecodeError("path", err)
		}
	}
	return nil
}

// pathValues collects r.PathValue for each top-level `path` tagged field.
func pathValues(r *http.Request, t reflect.Type) url.Values {
	values := url.Values{}
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("path"), ",")
		if name == "" || name == "-" {
			continue
		}
		if val := r.PathValue(name); val != "" {
			values.Set(name, val)
		}
	}
	return values
}

// translateDecodeError maps schema errors caused by request data to 400 and
// anything else, which indicates a misconfigured params type, to 500.
func translateDecodeError(source string, err error) error {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return newEndpointError(http.StatusInternalServerError, "", fmt.Errorf("endpoint: decode %s: %w", source, err))
	}

	keys := make([]string, 0, len(multi))
	for k := range multi {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var msgs []string
	for _, k := range keys {
		var ce schema.ConversionError
		var ee schema.EmptyFieldError
		switch {
		case errors.As(multi[k], &ce):
			msgs = append(msgs, fmt.Sprintf("invalid %s parameter %q", source, k))
		case errors.As(multi[k], &ee):
			msgs = append(msgs, fmt.Sprintf("missing %s parameter %q", source, k))
		default:
			if strings.Contains(multi[k].Error(), "schema: converter not found for") {
				return newEndpointError(http.StatusInternalServerError, "", fmt.Errorf("endpoint: decode %s: %w", source, err))
			}
			msgs = append(msgs, fmt.Sprintf("invalid %s parameter %q", source, k))
		}
	}
	return newEndpointError(http.StatusBadRequest, strings.Join(msgs, "; "), err)
}
