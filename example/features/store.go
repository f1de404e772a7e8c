package main

import (
	"embed"
	"fmt"

	"github.com/mnehpets/papyrus/fixture"
	"github.com/mnehpets/papyrus/geojson"
)

//go:embed features.yaml
var sampleFS embed.FS

// store is an immutable, in-memory feature collection indexed by id.
type store struct {
	features []any
	byID     map[string]any
}

// loadStore reads a FeatureCollection document from path, or the embedded
// sample when path is empty.
func loadStore(path string) (*store, error) {
	var (
		doc any
		err error
	)
	if path == "" {
		doc, err = fixture.LoadFS(sampleFS, "features.yaml")
	} else {
		doc, err = fixture.Load(path)
	}
	if err != nil {
		return nil, err
	}
	return newStore(doc)
}

func newStore(doc any) (*store, error) {
	var features []any
	switch doc := doc.(type) {
	case geojson.Object:
		v, _ := doc.Get("features")
		features, _ = v.([]any)
	case map[string]any:
		features, _ = doc["features"].([]any)
	}
	if features == nil {
		return nil, fmt.Errorf("features: document has no features list")
	}

	s := &store{features: features, byID: make(map[string]any, len(features))}
	for i, f := range features {
		var id any
		switch f := f.(type) {
		case geojson.Object:
			id, _ = f.Get("id")
		case map[string]any:
			id = f["id"]
		default:
			return nil, fmt.Errorf("features: item %d is not a mapping", i)
		}
		if id == nil {
			continue
		}
		key := fmt.Sprint(id)
		if _, dup := s.byID[key]; dup {
			return nil, fmt.Errorf("features: duplicate id %q", key)
		}
		s.byID[key] = f
	}
	return s, nil
}

// collection returns up to limit features, all of them when limit <= 0.
func (s *store) collection(limit int) geojson.Object {
	features := s.features
	if limit > 0 && limit < len(features) {
		features = features[:limit]
	}
	return geojson.Object{
		{Key: "type", Value: "FeatureCollection"},
		{Key: "features", Value: features},
	}
}

func (s *store) feature(id string) (any, bool) {
	f, ok := s.byID[id]
	return f, ok
}
