package geojson

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a mapping from string keys to values that keeps its members in
// insertion order. Use it instead of map[string]any when the output key
// order matters.
type Object []Member

// Len returns the number of members.
func (o Object) Len() int { return len(o) }

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set replaces the value stored under key, keeping its position, or appends
// a new member if key is not present.
func (o *Object) Set(key string, value any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Member{Key: key, Value: value})
}

// ObjectMarshaler is implemented by types that present themselves as an
// ordered mapping. The returned Object is encoded like any other Input Value.
type ObjectMarshaler interface {
	MarshalObject() (Object, error)
}

// Feature is a GeoJSON Feature. No validation of Geometry or Properties is
// performed.
type Feature struct {
	// ID is omitted from the output when nil.
	ID         any
	Geometry   any
	Properties any
}

// MarshalObject implements ObjectMarshaler.
func (f Feature) MarshalObject() (Object, error) {
	o := make(Object, 0, 4)
	o = append(o, Member{"type", "Feature"})
	if f.ID != nil {
		o = append(o, Member{"id", f.ID})
	}
	o = append(o, Member{"geometry", f.Geometry}, Member{"properties", f.Properties})
	return o, nil
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Features []Feature
}

// MarshalObject implements ObjectMarshaler.
func (fc FeatureCollection) MarshalObject() (Object, error) {
	features := make([]any, len(fc.Features))
	for i, f := range fc.Features {
		features[i] = f
	}
	return Object{{"type", "FeatureCollection"}, {"features", features}}, nil
}
