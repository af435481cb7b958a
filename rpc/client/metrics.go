package client

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
	"time"
)

// Process wide client metrics, exposed via metrics.WritePrometheus (see the bench and serve commands)
var (
	attemptsTotal          = metrics.NewCounter(`kvbench_client_attempts_total`)
	connectsTotal          = metrics.NewCounter(`kvbench_client_connects_total`)
	redirectsTotal         = metrics.NewCounter(`kvbench_client_redirects_total`)
	busyRetriesTotal       = metrics.NewCounter(`kvbench_client_retries_total{reason="busy"}`)
	connectionRetriesTotal = metrics.NewCounter(`kvbench_client_retries_total{reason="connection"}`)
	writeTimeoutAcksTotal  = metrics.NewCounter(`kvbench_client_write_timeout_acks_total`)
	staleBytesTotal        = metrics.NewCounter(`kvbench_client_stale_bytes_discarded_total`)

	malformedTotal        = metrics.NewCounter(`kvbench_client_failures_total{reason="malformed"}`)
	redirectLimitTotal    = metrics.NewCounter(`kvbench_client_failures_total{reason="redirect_limit"}`)
	retriesExhaustedTotal = metrics.NewCounter(`kvbench_client_failures_total{reason="retries_exhausted"}`)
)

// observeOperation records the duration of one logical operation per command type
func observeOperation(cmdType protocol.CommandType, start time.Time) {
	metrics.GetOrCreateHistogram(`kvbench_client_operation_duration_seconds{command="` + cmdType.String() + `"}`).
		Update(time.Since(start).Seconds())
}
