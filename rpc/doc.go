// Package rpc provides the communication layer between kvbench and a leader based,
// replicated key-value cluster speaking a newline delimited text protocol.
//
// The package is organized into several subpackages:
//
//   - common: Client and server configuration structures and logging.
//
//   - protocol: Encoding of commands (get, put, del) and classification of the
//     answers of a cluster member into outcomes.
//
//   - transport: Connection abstractions. tcp dials and listens with tuned socket
//     options, line wraps a connection into a session with per-operation deadlines.
//
//   - client: The resilient executor that follows leader redirects, retries busy
//     members and broken connections, and a store.IStore on top of it.
//
//   - server: An in-process cluster of line protocol members used for local
//     testing and benchmarking.
package rpc
