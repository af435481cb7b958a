package lstore

import (
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
	"strings"
	"sync/atomic"
)

// LocalStore is an in-memory store.IStore. Values are copied on the way in and out.
//
// Thread-safety: all methods may be called concurrently.
type LocalStore struct {
	data   *xsync.MapOf[string, []byte]
	writes atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		data: xsync.NewMapOf[string, []byte](),
	}
}

var _ store.IStore = (*LocalStore)(nil)

// Len returns the number of keys in the store
func (s *LocalStore) Len() int {
	return s.data.Size()
}

// Writes returns the number of successful Set and Delete calls
func (s *LocalStore) Writes() uint64 {
	return s.writes.Load()
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, " \t\r\n") {
		return store.NewError(store.RetCInvalidOperation, "invalid key "+key)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *LocalStore) Set(key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.data.Store(key, append([]byte(nil), value...))
	s.writes.Add(1)
	return nil
}

func (s *LocalStore) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.data.Delete(key)
	s.writes.Add(1)
	return nil
}

func (s *LocalStore) Get(key string) ([]byte, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	val, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, val...), true, nil
}

func (s *LocalStore) Has(key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	_, ok := s.data.Load(key)
	return ok, nil
}
