// Package server implements an in-process development cluster speaking the line protocol.
// It is used by the tests of the client packages and by "kvbench serve" to benchmark the
// client locally without a real replicated store.
//
// Key Components:
//
//   - Cluster: one TCP listener per simulated member, a shared store.IStore and a shared
//     leader index. Followers redirect writes to the leader, the leader executes them.
//     The leader can be changed at runtime (SetLeader) or rotated periodically, and members
//     can be marked busy (SetBusy) to exercise the retry path of clients.
//
//   - IServerAdapter: executes a parsed command on the leader and produces the answer line.
//     NewIStoreServerAdapter serves any store.IStore. With silent writes the leader does not
//     acknowledge successful writes at all, like servers that only answer reads.
//
// Metrics:
//
// Requests are counted per answer in kvbench_server_requests_total. If a metrics endpoint is
// configured, all VictoriaMetrics metrics of the process are exposed on /metrics.
//
// Thread Safety:
//
// All exported methods of Cluster may be called concurrently with request handling.
package server
