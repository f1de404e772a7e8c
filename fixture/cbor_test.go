package fixture

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/papyrus/geojson"
)

func mustCBOR(t *testing.T, v any) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestLoadCBOR_TaggedScalars(t *testing.T) {
	data := mustCBOR(t, map[string]any{
		"price":   cbor.Tag{Number: 4, Content: []any{-3, 3}},
		"opened":  cbor.Tag{Number: 1004, Content: "2011-05-21"},
		"updated": cbor.Tag{Number: 1, Content: 1306011312},
		"stamped": cbor.Tag{Number: 0, Content: "2011-05-21T22:55:12+02:00"},
		"title":   "Dict 1",
	})

	v, err := LoadCBOR(bytes.NewReader(data))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)

	require.IsType(t, decimal.Decimal{}, m["price"])
	assert.True(t, decimal.RequireFromString("0.003").Equal(m["price"].(decimal.Decimal)))
	assert.Equal(t, civil.Date{Year: 2011, Month: time.May, Day: 21}, m["opened"])

	want := time.Date(2011, time.May, 21, 20, 55, 12, 0, time.UTC)
	assert.Equal(t, want, m["updated"])
	assert.Equal(t, want, m["stamped"])

	out, err := geojson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"opened": "2011-05-21", "price": 0.003, "stamped": "2011-05-21T20:55:12", "title": "Dict 1", "updated": "2011-05-21T20:55:12"}`,
		string(out))
}

func TestLoadCBOR_Bignum(t *testing.T) {
	n, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	v, err := LoadCBOR(bytes.NewReader(mustCBOR(t, []any{n, uint64(18446744073709551615), -4})))
	require.NoError(t, err)

	list := v.([]any)
	require.IsType(t, decimal.Decimal{}, list[0])
	assert.Equal(t, "123456789012345678901234567890", list[0].(decimal.Decimal).String())
	assert.Equal(t, uint64(18446744073709551615), list[1])
	assert.Equal(t, int64(-4), list[2])
}

func TestLoadCBOR_Errors(t *testing.T) {
	tests := map[string][]byte{
		"unknown tag":  mustCBOR(t, cbor.Tag{Number: 60000, Content: "x"}),
		"bad fraction": mustCBOR(t, cbor.Tag{Number: 4, Content: "x"}),
		"bad date":     mustCBOR(t, cbor.Tag{Number: 1004, Content: "2011-02-30"}),
		"byte string":  mustCBOR(t, []byte("x")),
		"int map key":  mustCBOR(t, map[int]string{1: "x"}),
		"truncated":    {0x82, 0x01},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCBOR(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLoadCBOR_Empty(t *testing.T) {
	v, err := LoadCBOR(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Nil(t, v)
}
