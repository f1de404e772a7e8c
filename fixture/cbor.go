package fixture

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// CBOR tag numbers with a dedicated conversion.
const (
	tagDateTimeString  = 0
	tagEpochDateTime   = 1
	tagDecimalFraction = 4
	tagFullDate        = 1004
)

var cborDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		BigIntDec:       cbor.BigIntDecodePointer,
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// LoadCBOR decodes a single CBOR data item.
//
// Maps must have text keys and become map[string]any; CBOR maps carry no
// order that survives decoding, so they render with sorted keys. Tagged
// items are converted:
//   - tag 4 (decimal fraction) and bignums become decimal.Decimal
//   - tag 1004 (full-date) becomes civil.Date
//   - tags 0 and 1 become time.Time in UTC
//
// Any other tag, byte strings and simple values are rejected.
func LoadCBOR(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var v any
	if err := cborDecMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return cborValue(v, 0)
}

func cborValue(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, formatError("maximum nesting depth exceeded")
	}
	switch v := v.(type) {
	case nil, bool, string, int64, uint64, float64:
		return v, nil
	case time.Time:
		return v.UTC(), nil
	case *big.Int:
		return decimal.NewFromBigInt(v, 0), nil
	case big.Int:
		return decimal.NewFromBigInt(&v, 0), nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			c, err := cborValue(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			c, err := cborValue(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case cbor.Tag:
		return cborTag(v)
	case []byte:
		return nil, formatError("byte strings are not supported")
	default:
		return nil, formatError("unsupported CBOR item %T", v)
	}
}

func cborTag(t cbor.Tag) (any, error) {
	switch t.Number {
	case tagDecimalFraction:
		parts, ok := t.Content.([]any)
		if !ok || len(parts) != 2 {
			return nil, formatError("tag 4: content must be [exponent, mantissa]")
		}
		exp, ok := cborInt(parts[0])
		if !ok || !exp.IsInt64() || exp.Int64() < -(1<<31) || exp.Int64() >= 1<<31 {
			return nil, formatError("tag 4: invalid exponent")
		}
		mant, ok := cborInt(parts[1])
		if !ok {
			return nil, formatError("tag 4: invalid mantissa")
		}
		return decimal.NewFromBigInt(mant, int32(exp.Int64())), nil
	case tagFullDate:
		s, ok := t.Content.(string)
		if !ok {
			return nil, formatError("tag 1004: content must be a text string")
		}
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, formatError("tag 1004: %v", err)
		}
		return d, nil
	case tagDateTimeString:
		s, ok := t.Content.(string)
		if !ok {
			return nil, formatError("tag 0: content must be a text string")
		}
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, formatError("tag 0: %v", err)
		}
		return tm.UTC(), nil
	case tagEpochDateTime:
		switch c := t.Content.(type) {
		case int64:
			return time.Unix(c, 0).UTC(), nil
		case uint64:
			if c > 1<<62 {
				return nil, formatError("tag 1: out of range")
			}
			return time.Unix(int64(c), 0).UTC(), nil
		case float64:
			sec := int64(c)
			return time.Unix(sec, int64((c-float64(sec))*1e9)).UTC(), nil
		}
		return nil, formatError("tag 1: content must be a number")
	}
	return nil, formatError("unsupported tag %d", t.Number)
}

// cborInt returns integer content, including bignums, as a big.Int.
func cborInt(v any) (*big.Int, bool) {
	switch v := v.(type) {
	case int64:
		return big.NewInt(v), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case *big.Int:
		return v, true
	case big.Int:
		return &v, true
	}
	return nil, false
}
