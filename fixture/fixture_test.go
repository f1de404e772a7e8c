package fixture

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/papyrus/geojson"
)

func TestLoadFS_DispatchesOnExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("x: 1\n")},
		"b.yml":  {Data: []byte("x: 2\n")},
		"c.cbor": {Data: mustCBOR(t, map[string]any{"x": 3})},
		"d.json": {Data: []byte(`{"x": 4}`)},
	}

	for path, want := range map[string]string{
		"a.yaml": `{"x": 1}`,
		"b.yml":  `{"x": 2}`,
		"c.cbor": `{"x": 3}`,
	} {
		v, err := LoadFS(fsys, path)
		require.NoError(t, err, path)
		out, err := geojson.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, want, string(out), path)
	}

	_, err := LoadFS(fsys, "d.json")
	assert.ErrorIs(t, err, ErrFormat)

	_, err = LoadFS(fsys, "missing.yaml")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.YAML")
	require.NoError(t, os.WriteFile(path, []byte("type: FeatureCollection\nfeatures: []\n"), 0o600))

	v, err := Load(path)
	require.NoError(t, err)
	out, err := geojson.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"type": "FeatureCollection", "features": []}`, string(out))

	_, err = Load(filepath.Join(t.TempDir(), "broken.yaml"))
	assert.Error(t, err)
}
