package geojson

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	elementSeparator = ", "
	keySeparator     = ": "
)

// Marshal encodes v with Encode and returns its JSON text.
//
// The text is a single line with ", " between members and elements and ": "
// after keys. Strings are escaped HTML-safe, including U+2028 and U+2029, so
// the output can be embedded in a JSONP script.
func Marshal(v any) ([]byte, error) {
	jv, err := Encode(v)
	if err != nil {
		return nil, err
	}

	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	if err := writeValue(stream, jv); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, fmt.Errorf("geojson: write: %w", stream.Error)
	}

	// The stream buffer is reused once returned to the pool.
	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// writeValue writes a JSON Value as produced by Encode.
func writeValue(s *jsoniter.Stream, v any) error {
	switch v := v.(type) {
	case nil:
		s.WriteNil()
	case bool:
		s.WriteBool(v)
	case int64:
		s.WriteInt64(v)
	case uint64:
		s.WriteUint64(v)
	case float32:
		s.WriteFloat32(v)
	case float64:
		s.WriteFloat64(v)
	case json.Number:
		s.WriteRaw(string(v))
	case string:
		s.WriteStringWithHTMLEscaped(v)
	case []any:
		s.WriteArrayStart()
		for i, elem := range v {
			if i > 0 {
				s.WriteRaw(elementSeparator)
			}
			if err := writeValue(s, elem); err != nil {
				return err
			}
		}
		s.WriteArrayEnd()
	case Object:
		s.WriteObjectStart()
		for i, m := range v {
			if i > 0 {
				s.WriteRaw(elementSeparator)
			}
			s.WriteStringWithHTMLEscaped(m.Key)
			s.WriteRaw(keySeparator)
			if err := writeValue(s, m.Value); err != nil {
				return err
			}
		}
		s.WriteObjectEnd()
	default:
		// Encode never produces other types.
		return fmt.Errorf("geojson: write: unexpected %T in encoded value", v)
	}
	return nil
}
