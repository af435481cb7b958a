package client

import (
	"errors"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
)

// LineStore implements store.IStore on top of an Executor, so the replicated cluster can be
// used like any local store.
type LineStore struct {
	exec *Executor
}

// NewLineStore wraps the executor. Closing the store closes the executor.
func NewLineStore(exec *Executor) *LineStore {
	return &LineStore{exec: exec}
}

var _ store.IStore = (*LineStore)(nil)

// Executor returns the underlying executor
func (s *LineStore) Executor() *Executor {
	return s.exec
}

// Close closes the executor
func (s *LineStore) Close() error {
	return s.exec.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *LineStore) Set(key string, value []byte) error {
	_, err := s.exec.Execute(protocol.Put(key, value))
	return storeError(err)
}

func (s *LineStore) Delete(key string) error {
	_, err := s.exec.Execute(protocol.Delete(key))
	return storeError(err)
}

// Get maps an empty answer to a found key with an empty value
func (s *LineStore) Get(key string) ([]byte, bool, error) {
	outcome, err := s.exec.Execute(protocol.Get(key))
	if err != nil {
		return nil, false, storeError(err)
	}

	switch outcome.Type {
	case protocol.OutcomeTNotFound:
		return nil, false, nil
	case protocol.OutcomeTEmpty:
		return []byte{}, true, nil
	default:
		return outcome.Value, true, nil
	}
}

func (s *LineStore) Has(key string) (bool, error) {
	_, found, err := s.Get(key)
	return found, err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// storeError attaches a store.RetCode to an executor error:
// invalid keys are RetCInvalidOperation, malformed answers RetCInternalError
// and everything else (retries exhausted, redirect limit, closed) RetCUnavailable.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, protocol.ErrInvalidKey):
		return store.WrapError(store.RetCInvalidOperation, err)
	case errors.Is(err, ErrMalformed):
		return store.WrapError(store.RetCInternalError, err)
	default:
		return store.WrapError(store.RetCUnavailable, err)
	}
}
