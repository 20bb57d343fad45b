package list

import (
	"sort"
	"strconv"
)

// Entry is one (key, item) pair of a normalized collection
type Entry[T any] struct {
	Key  string
	Item T
}

// Collection is anything the reconciler can enumerate in a stable order.
// The enumeration key of each entry is the default reconciliation key.
type Collection[T any] interface {
	Entries() []Entry[T]
}

// Slice enumerates its items keyed by their index
type Slice[T any] []T

// Entries implements Collection
func (s Slice[T]) Entries() []Entry[T] {
	entries := make([]Entry[T], len(s))
	for i, item := range s {
		entries[i] = Entry[T]{Key: strconv.Itoa(i), Item: item}
	}
	return entries
}

// Record enumerates a plain Go map. Go maps carry no insertion order, so keys
// are enumerated the way object properties are: integer-like keys ascending
// first, then the remaining keys in lexical order.
type Record[T any] map[string]T

// Entries implements Collection
func (r Record[T]) Entries() []Entry[T] {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := arrayIndex(keys[i])
		b, bok := arrayIndex(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return keys[i] < keys[j]
		}
	})
	entries := make([]Entry[T], len(keys))
	for i, k := range keys {
		entries[i] = Entry[T]{Key: k, Item: r[k]}
	}
	return entries
}

// arrayIndex reports whether key is a canonical non-negative integer
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Map is an insertion-ordered string-keyed map
type Map[T any] struct {
	keys   []string
	values map[string]T
}

// NewMap creates a map holding the given entries in order
func NewMap[T any](entries ...Entry[T]) *Map[T] {
	m := &Map[T]{values: make(map[string]T, len(entries))}
	for _, e := range entries {
		m.Set(e.Key, e.Item)
	}
	return m
}

// Set stores v under key. Existing keys keep their position.
func (m *Map[T]) Set(key string, v T) *Map[T] {
	if m.values == nil {
		m.values = make(map[string]T)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value stored under key
func (m *Map[T]) Get(key string) (T, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present
func (m *Map[T]) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Delete removes key and reports whether it was present
func (m *Map[T]) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries
func (m *Map[T]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order
func (m *Map[T]) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Entries implements Collection
func (m *Map[T]) Entries() []Entry[T] {
	entries := make([]Entry[T], len(m.keys))
	for i, k := range m.keys {
		entries[i] = Entry[T]{Key: k, Item: m.values[k]}
	}
	return entries
}

// Set is an insertion-ordered set. Its entries are keyed by enumeration
// index, so reconciliation keys of a set usually come from a key function.
type Set[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewSet creates a set holding items in order, dropping duplicates
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{index: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item if it is not present yet
func (s *Set[T]) Add(item T) *Set[T] {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[item]; !ok {
		s.index[item] = struct{}{}
		s.items = append(s.items, item)
	}
	return s
}

// Has reports whether item is present
func (s *Set[T]) Has(item T) bool {
	_, ok := s.index[item]
	return ok
}

// Delete removes item and reports whether it was present
func (s *Set[T]) Delete(item T) bool {
	if _, ok := s.index[item]; !ok {
		return false
	}
	delete(s.index, item)
	for i, v := range s.items {
		if v == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of items
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Values returns the items in insertion order
func (s *Set[T]) Values() []T {
	return append([]T(nil), s.items...)
}

// Entries implements Collection
func (s *Set[T]) Entries() []Entry[T] {
	entries := make([]Entry[T], len(s.items))
	for i, item := range s.items {
		entries[i] = Entry[T]{Key: strconv.Itoa(i), Item: item}
	}
	return entries
}
