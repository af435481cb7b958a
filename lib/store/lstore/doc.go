// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data lives in a concurrent map (xsync.MapOf) and is not persisted
// between process restarts.
//
// The store backs every member of the development cluster (see rpc/server). All members of
// one cluster share a single LocalStore, which models a replicated state machine whose
// replicas are always in sync.
//
// Thread Safety:
//
// All methods may be called from multiple goroutines. Values passed to Set and returned by
// Get are copies, so callers may reuse their buffers.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	_ = s.Set("user1", []byte("alice"))
//	value, found, _ := s.Get("user1")
package lstore
