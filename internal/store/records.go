// internal/store/records.go
package store

import (
	"github.com/busybox42/discv5/pkg/crypto"
	"github.com/puzpuzpuz/xsync/v3"
)

// Key addresses a record by the hash of its full encoding.
type Key = [crypto.HashLength]byte

// Records holds the most recently seen node record per key. It is safe
// for concurrent use; writers to different keys do not block each other.
type Records struct {
	m *xsync.MapOf[Key, []byte]
}

func NewRecords() *Records {
	return &Records{
		m: xsync.NewMapOf[Key, []byte](),
	}
}

// KeyOf returns the key a record is stored under.
func KeyOf(record []byte) Key {
	return crypto.Hash(record)
}

// Set stores a copy of record under KeyOf(record), replacing any
// previous value.
func (s *Records) Set(record []byte) Key {
	key := KeyOf(record)
	s.m.Store(key, append([]byte(nil), record...))
	storeOperations.WithLabelValues(opSet, resSuccess).Inc()
	return key
}

// Find returns a copy of the record stored under key. A miss is
// reported through ok, not as an error.
func (s *Records) Find(key []byte) (record []byte, ok bool) {
	var k Key
	if len(key) != len(k) {
		storeOperations.WithLabelValues(opFind, resNotFound).Inc()
		return nil, false
	}
	copy(k[:], key)

	v, ok := s.m.Load(k)
	if !ok {
		storeOperations.WithLabelValues(opFind, resNotFound).Inc()
		return nil, false
	}
	storeOperations.WithLabelValues(opFind, resSuccess).Inc()
	return append([]byte(nil), v...), true
}

func (s *Records) Len() int {
	return s.m.Size()
}

// Range calls fn with a copy of every stored record until fn returns
// false. Records added during the walk may or may not be visited.
func (s *Records) Range(fn func(key Key, record []byte) bool) {
	s.m.Range(func(k Key, v []byte) bool {
		return fn(k, append([]byte(nil), v...))
	})
}
