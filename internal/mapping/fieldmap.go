package mapping

import "slices"

// EntryKind classifies a field-map entry.
type EntryKind int

const (
	KindField    EntryKind = iota // scalar field conversion
	KindRelation                  // edge to a related record handled by another transformer
)

// String returns a human-readable kind name.
func (k EntryKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Entry is one normalized field-map entry.
type Entry struct {
	Key   string
	Value string
	Kind  EntryKind
}

// IsRelation reports whether the entry is a relation edge.
func (e Entry) IsRelation() bool {
	return e.Kind == KindRelation
}

// FieldMap is an ordered dictionary with unique keys. Iteration follows
// insertion order; re-setting an existing key keeps its original position.
type FieldMap struct {
	entries []Entry
	index   map[string]int
}

// NewFieldMap creates an empty field map.
func NewFieldMap() *FieldMap {
	return &FieldMap{index: make(map[string]int)}
}

// Set inserts or replaces the entry for key.
func (m *FieldMap) Set(key, value string, kind EntryKind) {
	e := Entry{Key: key, Value: value, Kind: kind}

	if i, ok := m.index[key]; ok {
		m.entries[i] = e
		return
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Get returns the entry for key.
func (m *FieldMap) Get(key string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}

	i, ok := m.index[key]
	if !ok {
		return Entry{}, false
	}

	return m.entries[i], true
}

// Len returns the number of entries.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.entries)
}

// Entries returns all entries in declaration order.
func (m *FieldMap) Entries() []Entry {
	if m == nil {
		return nil
	}

	return slices.Clone(m.entries)
}

// Fields returns the scalar field entries in declaration order.
func (m *FieldMap) Fields() []Entry {
	return m.filter(KindField)
}

// Relations returns the relation entries in declaration order.
func (m *FieldMap) Relations() []Entry {
	return m.filter(KindRelation)
}

// Keys returns the keys in declaration order.
func (m *FieldMap) Keys() []string {
	keys := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}

	return keys
}

// Inverse returns a map with keys and values swapped, same order and kinds.
func (m *FieldMap) Inverse() *FieldMap {
	inv := NewFieldMap()
	for _, e := range m.Entries() {
		inv.Set(e.Value, e.Key, e.Kind)
	}

	return inv
}

// ToMap flattens the entries into a plain map, dropping order.
func (m *FieldMap) ToMap() map[string]string {
	out := make(map[string]string, m.Len())
	for _, e := range m.Entries() {
		out[e.Key] = e.Value
	}

	return out
}

func (m *FieldMap) filter(kind EntryKind) []Entry {
	var out []Entry

	for _, e := range m.Entries() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}
