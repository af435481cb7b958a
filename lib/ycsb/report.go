package ycsb

import (
	"encoding/csv"
	"fmt"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"strconv"
	"strings"
	"time"
)

// OperationStats summarizes one operation type of a phase. Latencies are in microseconds.
type OperationStats struct {
	Operation OperationT
	Count     int64
	Statuses  map[Status]int64

	MinUs  int64
	MaxUs  int64
	MeanUs float64
	P50Us  float64
	P95Us  float64
	P99Us  float64
}

// Report is the result of one phase of a Runner
type Report struct {
	RunID      string
	Phase      string
	Threads    int
	Duration   time.Duration
	Operations []OperationStats
}

func newReport(runID, phase string, threads int, duration time.Duration, registry gometrics.Registry) *Report {
	report := &Report{
		RunID:    runID,
		Phase:    phase,
		Threads:  threads,
		Duration: duration,
	}

	for _, op := range Operations {
		h, ok := registry.Get(op.String()).(gometrics.Histogram)
		if !ok || h.Count() == 0 {
			continue
		}

		snapshot := h.Snapshot()
		percentiles := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})
		stats := OperationStats{
			Operation: op,
			Count:     snapshot.Count(),
			Statuses:  map[Status]int64{},
			MinUs:     snapshot.Min(),
			MaxUs:     snapshot.Max(),
			MeanUs:    snapshot.Mean(),
			P50Us:     percentiles[0],
			P95Us:     percentiles[1],
			P99Us:     percentiles[2],
		}
		for _, status := range Statuses {
			if c, ok := registry.Get(statusCounterName(op, status)).(gometrics.Counter); ok {
				stats.Statuses[status] = c.Count()
			}
		}
		report.Operations = append(report.Operations, stats)
	}
	return report
}

// Total returns the number of operations of all types
func (r *Report) Total() int64 {
	var total int64
	for _, op := range r.Operations {
		total += op.Count
	}
	return total
}

// Throughput returns operations per second
func (r *Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Total()) / r.Duration.Seconds()
}

// Failed returns the number of operations that ended with StatusError
func (r *Report) Failed() int64 {
	var failed int64
	for _, op := range r.Operations {
		failed += op.Statuses[StatusError]
	}
	return failed
}

// Get returns the stats of an operation type
func (r *Report) Get(op OperationT) (OperationStats, bool) {
	for _, stats := range r.Operations {
		if stats.Operation == op {
			return stats, true
		}
	}
	return OperationStats{}, false
}

// String renders the report in the well known YCSB text format
func (r *Report) String() string {
	var sb strings.Builder
	line := func(section, metric string, value any) {
		sb.WriteString(fmt.Sprintf("[%s], %s, %v\n", section, metric, value))
	}

	line("OVERALL", "RunID", r.RunID)
	line("OVERALL", "Phase", r.Phase)
	line("OVERALL", "RunTime(ms)", r.Duration.Milliseconds())
	line("OVERALL", "Throughput(ops/sec)", strconv.FormatFloat(r.Throughput(), 'f', 2, 64))

	for _, op := range r.Operations {
		name := op.Operation.String()
		line(name, "Operations", op.Count)
		line(name, "AverageLatency(us)", strconv.FormatFloat(op.MeanUs, 'f', 2, 64))
		line(name, "MinLatency(us)", op.MinUs)
		line(name, "MaxLatency(us)", op.MaxUs)
		line(name, "50thPercentileLatency(us)", strconv.FormatFloat(op.P50Us, 'f', 0, 64))
		line(name, "95thPercentileLatency(us)", strconv.FormatFloat(op.P95Us, 'f', 0, 64))
		line(name, "99thPercentileLatency(us)", strconv.FormatFloat(op.P99Us, 'f', 0, 64))
		for _, status := range Statuses {
			if n := op.Statuses[status]; n > 0 {
				line(name, "Return="+status.String(), n)
			}
		}
	}
	return sb.String()
}

// WriteCSV writes one row per operation type. The header is written if header is true,
// so reports of several phases can be appended to one file.
func (r *Report) WriteCSV(w io.Writer, header bool) error {
	writer := csv.NewWriter(w)

	if header {
		if err := writer.Write([]string{
			"RunID", "Phase", "Operation", "Threads", "RunTimeMs", "OpsPerSec",
			"Count", "OK", "NotFound", "Error", "NotImplemented",
			"MeanUs", "MinUs", "MaxUs", "P50Us", "P95Us", "P99Us",
		}); err != nil {
			return fmt.Errorf("failed to write CSV header: %v", err)
		}
	}

	for _, op := range r.Operations {
		row := []string{
			r.RunID,
			r.Phase,
			op.Operation.String(),
			strconv.Itoa(r.Threads),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			strconv.FormatFloat(r.Throughput(), 'f', 2, 64),
			strconv.FormatInt(op.Count, 10),
			strconv.FormatInt(op.Statuses[StatusOK], 10),
			strconv.FormatInt(op.Statuses[StatusNotFound], 10),
			strconv.FormatInt(op.Statuses[StatusError], 10),
			strconv.FormatInt(op.Statuses[StatusNotImplemented], 10),
			strconv.FormatFloat(op.MeanUs, 'f', 2, 64),
			strconv.FormatInt(op.MinUs, 10),
			strconv.FormatInt(op.MaxUs, 10),
			strconv.FormatFloat(op.P50Us, 'f', 0, 64),
			strconv.FormatFloat(op.P95Us, 'f', 0, 64),
			strconv.FormatFloat(op.P99Us, 'f', 0, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %v", op.Operation, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
