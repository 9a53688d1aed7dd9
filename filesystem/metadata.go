package filesystem

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// Metadata is a concurrent string keyed side-table for attaching arbitrary
// values to nodes, handles and info objects. Clones and snapshots of a node
// carry a copy of the table; copies made through the file verbs start empty.
// Seed files only round-trip string values.
type Metadata struct {
	values *xsync.Map[string, any]
}

func NewMetadata() *Metadata {
	return &Metadata{values: xsync.NewMap[string, any]()}
}

// Set is a no-op on a nil table
func (m *Metadata) Set(key string, value any) {
	if m == nil {
		return
	}
	m.values.Store(key, value)
}

// Get returns the raw value stored under key
func (m *Metadata) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	return m.values.Load(key)
}

func (m *Metadata) Delete(key string) {
	if m == nil {
		return
	}
	m.values.Delete(key)
}

// Keys returns the sorted keys
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.values.Size())
	m.values.Range(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	slices.Sort(keys)
	return keys
}

func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return m.values.Size()
}

// Clone returns an independent copy
func (m *Metadata) Clone() *Metadata {
	c := NewMetadata()
	if m == nil {
		return c
	}
	m.values.Range(func(k string, v any) bool {
		c.values.Store(k, v)
		return true
	})
	return c
}

// LookupMetadata returns the value under key when it is present and of type T.
func LookupMetadata[T any](m *Metadata, key string) (T, bool) {
	var zero T
	raw, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// MetadataValue returns the value under key, or the zero T when it is
// missing or holds another type.
func MetadataValue[T any](m *Metadata, key string) T {
	v, _ := LookupMetadata[T](m, key)
	return v
}
