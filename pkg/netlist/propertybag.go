package netlist

// PropertyBag is an ordered string-to-string map. Iteration follows
// insertion order so that property nodes land in design files in a stable
// order run after run.
type PropertyBag struct {
	keys   []string
	values map[string]string
}

// NewPropertyBag creates an empty bag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[string]string)}
}

// Get returns the value for key and whether it is present.
func (b *PropertyBag) Get(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.values[key]
	return v, ok
}

// Set stores a value, keeping the key's original position when it already
// exists.
func (b *PropertyBag) Set(key, value string) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Delete removes a key and reports whether it was present.
func (b *PropertyBag) Delete(key string) bool {
	if b == nil {
		return false
	}
	if _, ok := b.values[key]; !ok {
		return false
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order. The slice is a copy.
func (b *PropertyBag) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of entries.
func (b *PropertyBag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Clone returns an independent copy.
func (b *PropertyBag) Clone() *PropertyBag {
	c := NewPropertyBag()
	if b == nil {
		return c
	}
	for _, k := range b.keys {
		c.Set(k, b.values[k])
	}
	return c
}
