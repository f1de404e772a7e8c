package fixture

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/papyrus/geojson"
)

const featureYAML = `
geometry:
  type: Point
  coordinates: [53, -4]
type: Feature
properties:
  title: Dict 1
  price: 0.003
  opened: 2011-05-21
  updated: 2011-05-21T20:55:12Z
  quoted: "2011-05-21"
id: 1
`

func TestLoadYAML_FeatureRendersInDocumentOrder(t *testing.T) {
	v, err := LoadYAML(strings.NewReader(featureYAML))
	require.NoError(t, err)

	out, err := geojson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"geometry": {"type": "Point", "coordinates": [53, -4]}, "type": "Feature", "properties": {"title": "Dict 1", "price": 0.003, "opened": "2011-05-21", "updated": "2011-05-21T20:55:12", "quoted": "2011-05-21"}, "id": 1}`,
		string(out))
}

func TestLoadYAML_Scalars(t *testing.T) {
	v, err := LoadYAML(strings.NewReader(featureYAML))
	require.NoError(t, err)

	obj, ok := v.(geojson.Object)
	require.True(t, ok)
	props, ok := obj.Get("properties")
	require.True(t, ok)
	p := props.(geojson.Object)

	price, _ := p.Get("price")
	require.IsType(t, decimal.Decimal{}, price)
	assert.True(t, decimal.RequireFromString("0.003").Equal(price.(decimal.Decimal)))

	opened, _ := p.Get("opened")
	assert.Equal(t, civil.Date{Year: 2011, Month: time.May, Day: 21}, opened)

	updated, _ := p.Get("updated")
	require.IsType(t, time.Time{}, updated)
	assert.True(t, updated.(time.Time).Equal(time.Date(2011, time.May, 21, 20, 55, 12, 0, time.UTC)))

	quoted, _ := p.Get("quoted")
	assert.Equal(t, "2011-05-21", quoted)

	id, _ := obj.Get("id")
	assert.Equal(t, int64(1), id)
}

func TestLoadYAML_Numbers(t *testing.T) {
	v, err := LoadYAML(strings.NewReader("[18446744073709551615, 123456789012345678901234567890, 0x1F, .inf, -2.5, null, true]"))
	require.NoError(t, err)

	list := v.([]any)
	require.Len(t, list, 7)
	assert.Equal(t, uint64(18446744073709551615), list[0])
	require.IsType(t, decimal.Decimal{}, list[1])
	assert.Equal(t, "123456789012345678901234567890", list[1].(decimal.Decimal).String())
	assert.Equal(t, int64(31), list[2])
	assert.IsType(t, float64(0), list[3])
	assert.True(t, decimal.NewFromFloat(-2.5).Equal(list[4].(decimal.Decimal)))
	assert.Nil(t, list[5])
	assert.Equal(t, true, list[6])
}

func TestLoadYAML_AliasesAndMerge(t *testing.T) {
	doc := `
base: &base
  kind: cafe
  open: true
a:
  <<: *base
  open: false
b:
  name: x
  <<: *base
list: [*base]
`
	v, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)

	out, err := geojson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"base": {"kind": "cafe", "open": true}, "a": {"kind": "cafe", "open": false}, "b": {"name": "x", "kind": "cafe", "open": true}, "list": [{"kind": "cafe", "open": true}]}`,
		string(out))
}

func TestLoadYAML_EmptyDocument(t *testing.T) {
	v, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLoadYAML_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":      "a: [1, 2",
		"binary":      "a: !!binary aGVsbG8=",
		"complex key": "? [1, 2]\n: x\n",
		"bad date":    "a: !!timestamp not-a-date",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
