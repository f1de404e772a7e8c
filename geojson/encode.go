package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// maxDepth bounds recursion so that self-referencing slices or objects fail
// instead of overflowing the stack.
const maxDepth = 10000

// timestampLayout has seconds resolution and no zone.
const timestampLayout = "2006-01-02T15:04:05"

// ErrUnsupportedValue is wrapped by every EncodingError.
var ErrUnsupportedValue = errors.New("geojson: unsupported value")

var jsonNumberPattern = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

// EncodingError reports a value that has no JSON representation.
//
// Encoding is all or nothing: when Encode returns an EncodingError no
// partial result is returned.
type EncodingError struct {
	// Path locates the value, e.g. $.properties.when[2].
	Path string
	// Type is the Go type of the offending value.
	Type string
	// Reason is set when the type is supported but the value is not,
	// e.g. NaN.
	Reason string
	// Err is the error returned by an ObjectMarshaler, if any.
	Err error
}

func (e *EncodingError) Error() string {
	if e == nil {
		return "geojson: encoding error: <nil>"
	}
	msg := "geojson: cannot encode " + e.Type + " at " + e.Path
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return []error{ErrUnsupportedValue, e.Err}
	}
	return []error{ErrUnsupportedValue}
}

// Kind tags the closed set of value kinds Encode understands.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInteger
	KindFloat
	KindNumber
	KindString
	KindArray
	KindObject
	KindMap
	KindDecimal
	KindDate
	KindTimestamp
	KindMarshaler
	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:   "invalid",
	KindNull:      "null",
	KindBool:      "bool",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindMap:       "map",
	KindDecimal:   "decimal",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindMarshaler: "marshaler",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// KindOf classifies v. Cases are checked top to bottom and the first match
// wins, so concrete types always take precedence over ObjectMarshaler.
// Anything not listed is KindInvalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case float32, float64:
		return KindFloat
	case json.Number:
		return KindNumber
	case string:
		return KindString
	case []any, []string, []float64, []int, []int64, [][]float64, [][][]float64:
		return KindArray
	case Object:
		return KindObject
	case map[string]any, map[string]string:
		return KindMap
	case decimal.Decimal, *decimal.Decimal, decimal.NullDecimal, *big.Rat, *big.Float, *big.Int:
		return KindDecimal
	case civil.Date:
		return KindDate
	case civil.DateTime, time.Time:
		return KindTimestamp
	case ObjectMarshaler:
		return KindMarshaler
	}
	return KindInvalid
}

type encodeFunc func(e *encoder, v any) (any, error)

// encoders maps every Kind to its conversion. KindInvalid is the default
// case and always fails. Populated in init because the container encoders
// recurse through the table.
var encoders [kindCount]encodeFunc

func init() {
	encoders = [kindCount]encodeFunc{
		KindInvalid:   encodeInvalid,
		KindNull:      encodeNull,
		KindBool:      encodeIdentity,
		KindInteger:   encodeInteger,
		KindFloat:     encodeFloat,
		KindNumber:    encodeNumber,
		KindString:    encodeIdentity,
		KindArray:     encodeArray,
		KindObject:    encodeObject,
		KindMap:       encodeMap,
		KindDecimal:   encodeDecimal,
		KindDate:      encodeDate,
		KindTimestamp: encodeTimestamp,
		KindMarshaler: encodeMarshaler,
	}
}

// Encode converts an Input Value into a JSON Value.
//
// The result is built only from nil, bool, int64, uint64, float32, float64,
// json.Number, string, []any and Object. Exact decimals become the nearest
// float64, civil.Date becomes "YYYY-MM-DD", and civil.DateTime and
// time.Time become "YYYY-MM-DDTHH:MM:SS" with any fraction truncated and any
// zone dropped. Years outside 0..9999 cannot be written in four digits and
// fail with an *EncodingError.
//
// A nil pointer to an ObjectMarshaler becomes null.
//
// Any value whose kind is not supported yields an *EncodingError.
func Encode(v any) (any, error) {
	e := &encoder{path: []string{"$"}}
	return e.encode(v)
}

type encoder struct {
	path []string
}

func (e *encoder) encode(v any) (any, error) {
	if len(e.path) > maxDepth {
		return nil, e.fail(v, "maximum nesting depth exceeded", nil)
	}
	return encoders[KindOf(v)](e, v)
}

func (e *encoder) fail(v any, reason string, err error) *EncodingError {
	return &EncodingError{
		Path:   strings.Join(e.path, ""),
		Type:   typeName(v),
		Reason: reason,
		Err:    err,
	}
}

func (e *encoder) pushIndex(i int) {
	e.path = append(e.path, "["+strconv.Itoa(i)+"]")
}

func (e *encoder) pushKey(key string) {
	if isPlainKey(key) {
		e.path = append(e.path, "."+key)
		return
	}
	e.path = append(e.path, "["+strconv.Quote(key)+"]")
}

func (e *encoder) pop() {
	e.path = e.path[:len(e.path)-1]
}

func encodeInvalid(e *encoder, v any) (any, error) {
	return nil, e.fail(v, "", nil)
}

func encodeNull(_ *encoder, _ any) (any, error) {
	return nil, nil
}

func encodeIdentity(_ *encoder, v any) (any, error) {
	return v, nil
}

func encodeInteger(e *encoder, v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uint64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return n, nil
	}
	return encodeInvalid(e, v)
}

func encodeFloat(e *encoder, v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return encodeInvalid(e, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, e.fail(v, "non-finite number", nil)
	}
	return v, nil
}

func encodeNumber(e *encoder, v any) (any, error) {
	n := v.(json.Number)
	if !jsonNumberPattern.MatchString(string(n)) {
		return nil, e.fail(v, "invalid number literal "+strconv.Quote(string(n)), nil)
	}
	return n, nil
}

func encodeArray(e *encoder, v any) (any, error) {
	switch s := v.(type) {
	case []any:
		return encodeSlice(e, s)
	case []string:
		return encodeSlice(e, s)
	case []float64:
		return encodeSlice(e, s)
	case []int:
		return encodeSlice(e, s)
	case []int64:
		return encodeSlice(e, s)
	case [][]float64:
		return encodeSlice(e, s)
	case [][][]float64:
		return encodeSlice(e, s)
	}
	return encodeInvalid(e, v)
}

func encodeSlice[T any](e *encoder, s []T) (any, error) {
	if s == nil {
		return nil, nil
	}
	out := make([]any, len(s))
	for i, elem := range s {
		e.pushIndex(i)
		ev, err := e.encode(elem)
		e.pop()
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func encodeObject(e *encoder, v any) (any, error) {
	o := v.(Object)
	if o == nil {
		return nil, nil
	}
	out := make(Object, len(o))
	for i, m := range o {
		e.pushKey(m.Key)
		ev, err := e.encode(m.Value)
		e.pop()
		if err != nil {
			return nil, err
		}
		out[i] = Member{Key: m.Key, Value: ev}
	}
	return out, nil
}

func encodeMap(e *encoder, v any) (any, error) {
	switch m := v.(type) {
	case map[string]any:
		return encodeSortedMap(e, m)
	case map[string]string:
		return encodeSortedMap(e, m)
	}
	return encodeInvalid(e, v)
}

// encodeSortedMap writes Go maps in sorted key order, matching
// encoding/json, since they carry no insertion order.
func encodeSortedMap[V any](e *encoder, m map[string]V) (any, error) {
	if m == nil {
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(Object, len(keys))
	for i, k := range keys {
		e.pushKey(k)
		ev, err := e.encode(m[k])
		e.pop()
		if err != nil {
			return nil, err
		}
		out[i] = Member{Key: k, Value: ev}
	}
	return out, nil
}

// encodeDecimal converts exact decimals to the nearest float64. Precision
// beyond float64 is lost. Integral big.Int values that fit 64 bits stay
// exact.
func encodeDecimal(e *encoder, v any) (any, error) {
	var f float64
	switch d := v.(type) {
	case decimal.Decimal:
		f, _ = d.Float64()
	case *decimal.Decimal:
		if d == nil {
			return nil, nil
		}
		f, _ = d.Float64()
	case decimal.NullDecimal:
		if !d.Valid {
			return nil, nil
		}
		f, _ = d.Decimal.Float64()
	case *big.Rat:
		if d == nil {
			return nil, nil
		}
		f, _ = d.Float64()
	case *big.Float:
		if d == nil {
			return nil, nil
		}
		f, _ = d.Float64()
	case *big.Int:
		switch {
		case d == nil:
			return nil, nil
		case d.IsInt64():
			return d.Int64(), nil
		case d.IsUint64():
			return d.Uint64(), nil
		}
		f, _ = new(big.Float).SetInt(d).Float64()
	default:
		return encodeInvalid(e, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, e.fail(v, "out of float64 range", nil)
	}
	return f, nil
}

// minYear and maxYear bound the years that fit the four digit YYYY field.
const (
	minYear = 0
	maxYear = 9999
)

func checkYear(e *encoder, v any, year int) error {
	if year < minYear || year > maxYear {
		return e.fail(v, "year "+strconv.Itoa(year)+" outside 0..9999", nil)
	}
	return nil
}

func encodeDate(e *encoder, v any) (any, error) {
	d := v.(civil.Date)
	if !d.IsValid() {
		return nil, e.fail(v, "invalid date "+d.String(), nil)
	}
	if err := checkYear(e, v, d.Year); err != nil {
		return nil, err
	}
	return d.String(), nil
}

func encodeTimestamp(e *encoder, v any) (any, error) {
	switch t := v.(type) {
	case civil.DateTime:
		if !t.IsValid() {
			return nil, e.fail(v, "invalid datetime "+t.String(), nil)
		}
		if err := checkYear(e, v, t.Date.Year); err != nil {
			return nil, err
		}
		return formatDateTime(t), nil
	case time.Time:
		if err := checkYear(e, v, t.Year()); err != nil {
			return nil, err
		}
		return t.Format(timestampLayout), nil
	}
	return encodeInvalid(e, v)
}

func formatDateTime(dt civil.DateTime) string {
	var b strings.Builder
	b.Grow(len(timestampLayout))
	b.WriteString(dt.Date.String())
	b.WriteByte('T')
	writeTwoDigits(&b, dt.Time.Hour)
	b.WriteByte(':')
	writeTwoDigits(&b, dt.Time.Minute)
	b.WriteByte(':')
	writeTwoDigits(&b, dt.Time.Second)
	return b.String()
}

func writeTwoDigits(b *strings.Builder, n int) {
	b.WriteByte(byte('0' + n/10))
	b.WriteByte(byte('0' + n%10))
}

func encodeMarshaler(e *encoder, v any) (any, error) {
	// Value receivers are promoted to pointers, so a nil pointer still
	// satisfies ObjectMarshaler and would panic on the call.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	o, err := v.(ObjectMarshaler).MarshalObject()
	if err != nil {
		return nil, e.fail(v, "", err)
	}
	return encodeObject(e, o)
}

// isPlainKey reports whether key can be written as .key in a path.
func isPlainKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
