// Package ordered provides insertion-ordered collections so that generated
// source is deterministic across runs.
package ordered

// Map is an ordered map. All iterates over the map
// using the same order in which the keys have been added.
type Map[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

// NewMap returns a new ordered map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Store a key,value pair. Storing an existing key overwrites its value
// but keeps its original position.
func (m *Map[K, V]) Store(k K, v V) {
	_, in := m.m[k]
	if !in {
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// StoreNew stores the pair only if k is not yet present and reports whether it did.
func (m *Map[K, V]) StoreNew(k K, v V) bool {
	if _, in := m.m[k]; in {
		return false
	}
	m.keys = append(m.keys, k)
	m.m[k] = v
	return true
}

// Load returns a value given a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// All returns an iterator to range over the elements of the map.
func (m *Map[K, V]) All() func(func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				break
			}
		}
	}
}

// Values returns an iterator to range over the values of the map.
func (m *Map[K, V]) Values() func(func(V) bool) {
	return func(yield func(V) bool) {
		for _, k := range m.keys {
			if !yield(m.m[k]) {
				break
			}
		}
	}
}

// Len returns the number of elements in the map.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}
