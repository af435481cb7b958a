// Package client implements the resilient client for a leader based replicated key-value
// cluster that speaks the line protocol (see rpc/protocol).
//
// Key Components:
//
//   - Executor: runs one command at a time against the cluster. It keeps a single session to
//     the current leader candidate, follows "leader is N" redirects, rotates to the next member
//     on busy answers and connection errors, and bounds both with a redirect limit and a retry
//     budget. Writes that get no answer within the (short) write timeout count as acknowledged,
//     and the session is replaced so a late answer can not be read by the next command.
//
//   - LineStore: adapts an Executor to the store.IStore interface. Its errors are
//     *store.Error values whose RetCode tells invalid keys, malformed answers and an
//     unreachable cluster apart.
//
// Errors:
//
// Failures wrap ErrBusy, ErrConnection, ErrMalformed, ErrRedirectLimit, ErrRetriesExhausted
// or ErrClosed and can be tested with errors.Is. Invalid keys additionally wrap
// protocol.ErrInvalidKey.
//
// Metrics:
//
// Attempts, connects, redirects, retries and failures are counted with VictoriaMetrics
// counters named kvbench_client_*. Operation latencies go to the histogram
// kvbench_client_operation_duration_seconds.
//
// Usage Example:
//
//	exec, err := client.NewTCPExecutor(common.ClientConfig{
//		Endpoints:   []string{"10.0.0.1:7000", "10.0.0.2:7000", "10.0.0.3:7000"},
//		RetryCount:  3,
//		RandomStart: true,
//	})
//	if err != nil {
//		return err
//	}
//	defer exec.Close()
//
//	outcome, err := exec.Execute(protocol.Get("foo"))
//
// Thread Safety:
//
// Execute serializes callers with a mutex. Benchmarks should use one executor per worker.
package client
