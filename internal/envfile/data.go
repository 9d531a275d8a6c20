package envfile

// Data is an insertion-ordered mapping from key to Value. Assigning an
// existing key replaces its value but keeps its position.
type Data struct {
	keys   []string
	values map[string]Value
}

func NewData() *Data {
	return &Data{
		keys:   []string{},
		values: make(map[string]Value),
	}
}

// DataFrom builds Data from a plain map. Keys are inserted in sorted order so
// the result is deterministic.
func DataFrom(m map[string]string) *Data {
	d := NewData()
	for _, k := range sortedKeys(m) {
		d.Set(k, String(m[k]))
	}
	return d
}

func (d *Data) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Data) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *Data) Clone() *Data {
	c := NewData()
	if d == nil {
		return c
	}
	for _, k := range d.keys {
		c.Set(k, d.values[k])
	}
	return c
}

// Merge copies every entry of other into d in other's order.
func (d *Data) Merge(other *Data) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		d.Set(k, other.values[k])
	}
}

// Map returns an unordered copy of the entries.
func (d *Data) Map() map[string]Value {
	m := make(map[string]Value, d.Len())
	if d == nil {
		return m
	}
	for k, v := range d.values {
		m[k] = v
	}
	return m
}
