// Package fixture loads feature data from YAML or CBOR documents into values
// that package geojson can render.
//
// Mapping order is preserved where the format has one: YAML mappings become
// geojson.Object. Numbers and dates keep their precision as extended scalars
// (decimal.Decimal, civil.Date, time.Time) and are converted only when the
// value is rendered.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrFormat is wrapped by every error caused by the content of a document.
var ErrFormat = errors.New("fixture: invalid document")

// maxDepth bounds nesting, including alias expansion in YAML.
const maxDepth = 1000

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Load reads the file at path and decodes it according to its extension:
// .yaml and .yml as YAML, .cbor as CBOR.
func Load(path string) (any, error) {
	return load(path, func() (io.ReadCloser, error) { return os.Open(path) })
}

// LoadFS is like Load but reads path from fsys.
func LoadFS(fsys fs.FS, path string) (any, error) {
	return load(path, func() (io.ReadCloser, error) { return fsys.Open(path) })
}

func load(path string, open func() (io.ReadCloser, error)) (any, error) {
	var decode func(io.Reader) (any, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decode = LoadYAML
	case ".cbor":
		decode = LoadCBOR
	default:
		return nil, formatError("unsupported extension %q", ext)
	}

	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer f.Close()

	v, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", path, err)
	}
	return v, nil
}
