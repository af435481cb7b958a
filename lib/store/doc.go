// Package store defines IStore, the small key-value interface shared by the in-memory store
// of the development cluster and the line protocol client.
//
// Implementations:
//
//   - Local Store (lstore): a thread-safe in-memory map, served by rpc/server.
//     Available in the "github.com/ValentinKolb/kvbench/lib/store/lstore" package.
//
//   - Line Client (rpc/client.NewLineStore): forwards every call through the resilient
//     executor to a replicated cluster speaking the line protocol.
//
// Both implementations report *Error values carrying a RetCode, see CodeOf. The line client
// wraps the errors of the executor, which can still be tested with errors.Is (see rpc/client).
package store
