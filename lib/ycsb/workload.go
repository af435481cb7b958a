package ycsb

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// sampleSize is the reservoir size of every latency histogram
const sampleSize = 100_000

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

type OperationT uint8

const (
	OperationTRead OperationT = iota
	OperationTUpdate
	OperationTInsert
	OperationTDelete
)

// Operations lists all operations in report order
var Operations = []OperationT{OperationTRead, OperationTUpdate, OperationTInsert, OperationTDelete}

func (o OperationT) String() string {
	switch o {
	case OperationTRead:
		return "READ"
	case OperationTUpdate:
		return "UPDATE"
	case OperationTInsert:
		return "INSERT"
	case OperationTDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// --------------------------------------------------------------------------
// Workload configuration
// --------------------------------------------------------------------------

// WorkloadConfig describes a core workload: a load phase inserting RecordCount records and a
// run phase executing OperationCount operations with the given proportions.
type WorkloadConfig struct {
	Table     string
	KeyPrefix string

	RecordCount    int
	OperationCount int
	Threads        int

	FieldCount  int
	FieldLength int

	ReadProportion   float64
	UpdateProportion float64
	InsertProportion float64
	DeleteProportion float64

	// Seed for the per worker random sources. Zero picks a time based seed.
	Seed int64
}

// WithDefaults returns a copy with unset values replaced by the core workload defaults.
// If no proportion is set, reads and updates are split evenly.
func (c WorkloadConfig) WithDefaults() WorkloadConfig {
	if c.Table == "" {
		c.Table = "usertable"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "user"
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	if c.FieldCount <= 0 {
		c.FieldCount = 10
	}
	if c.FieldLength <= 0 {
		c.FieldLength = 100
	}
	if c.ReadProportion+c.UpdateProportion+c.InsertProportion+c.DeleteProportion == 0 {
		c.ReadProportion = 0.5
		c.UpdateProportion = 0.5
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Validate checks the workload for values that cannot be run
func (c WorkloadConfig) Validate() error {
	if c.RecordCount < 0 || c.OperationCount < 0 {
		return fmt.Errorf("record and operation count must not be negative")
	}
	for name, p := range map[string]float64{
		"read":   c.ReadProportion,
		"update": c.UpdateProportion,
		"insert": c.InsertProportion,
		"delete": c.DeleteProportion,
	} {
		if p < 0 {
			return fmt.Errorf("%s proportion must not be negative", name)
		}
	}
	return nil
}

// String returns a formatted string representation of the workload
func (c *WorkloadConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Workload")
	addField("Table", c.Table)
	addField("Key Prefix", c.KeyPrefix)
	addField("Record Count", strconv.Itoa(c.RecordCount))
	addField("Operation Count", strconv.Itoa(c.OperationCount))
	addField("Threads", strconv.Itoa(c.Threads))
	addField("Fields", fmt.Sprintf("%d x %d bytes", c.FieldCount, c.FieldLength))

	addSection("Proportions")
	addField("Read", strconv.FormatFloat(c.ReadProportion, 'f', 2, 64))
	addField("Update", strconv.FormatFloat(c.UpdateProportion, 'f', 2, 64))
	addField("Insert", strconv.FormatFloat(c.InsertProportion, 'f', 2, 64))
	addField("Delete", strconv.FormatFloat(c.DeleteProportion, 'f', 2, 64))

	return sb.String()
}

// --------------------------------------------------------------------------
// Runner
// --------------------------------------------------------------------------

// Runner drives a workload against DB instances created by open, one instance per worker
type Runner struct {
	config WorkloadConfig
	open   func() (DB, error)
	runID  string

	loadCursor atomic.Int64 // next key index of the load phase
	keySpace   atomic.Int64 // number of key indices that may exist
}

// NewRunner creates a runner. Keys user0 .. user<RecordCount-1> are assumed to exist for the
// run phase, whether or not Load is called on this runner.
func NewRunner(config WorkloadConfig, open func() (DB, error)) (*Runner, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		config: config,
		open:   open,
		runID:  uuid.NewString(),
	}
	r.keySpace.Store(int64(config.RecordCount))
	return r, nil
}

// RunID identifies this runner in logs and reports
func (r *Runner) RunID() string {
	return r.runID
}

// Config returns the effective workload (defaults applied)
func (r *Runner) Config() WorkloadConfig {
	return r.config
}

// Load inserts RecordCount records
func (r *Runner) Load(ctx context.Context) (*Report, error) {
	r.loadCursor.Store(0)
	return r.execute(ctx, "load", r.config.RecordCount, func(*worker) (OperationT, string) {
		return OperationTInsert, r.key(r.loadCursor.Add(1) - 1)
	})
}

// Run executes OperationCount operations chosen by the configured proportions
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.execute(ctx, "run", r.config.OperationCount, func(w *worker) (OperationT, string) {
		op := r.chooseOperation(w.rnd)
		if op == OperationTInsert {
			return op, r.key(r.keySpace.Add(1) - 1)
		}
		space := r.keySpace.Load()
		if space == 0 {
			return OperationTInsert, r.key(r.keySpace.Add(1) - 1)
		}
		return op, r.key(w.rnd.Int63n(space))
	})
}

// execute splits total operations over the workers and collects their metrics.
// It fails if a worker cannot open its DB or the context is canceled.
func (r *Runner) execute(ctx context.Context, phase string, total int, next func(*worker) (OperationT, string)) (*Report, error) {
	registry := gometrics.NewRegistry()
	g, ctx := errgroup.WithContext(ctx)

	Logger.Infof("[%s] starting %s phase: %d operations on %d threads", r.runID, phase, total, r.config.Threads)
	start := time.Now()

	for t := 0; t < r.config.Threads; t++ {
		count := total / r.config.Threads
		if t < total%r.config.Threads {
			count++
		}

		w := &worker{
			id:         t,
			runner:     r,
			rnd:        rand.New(rand.NewSource(r.config.Seed + int64(t))),
			registry:   registry,
			histograms: map[OperationT]gometrics.Histogram{},
		}
		g.Go(func() error {
			return w.run(ctx, count, next)
		})
	}

	err := g.Wait()
	report := newReport(r.runID, phase, r.config.Threads, time.Since(start), registry)
	Logger.Infof("[%s] %s phase finished: %d operations in %s", r.runID, phase, report.Total(), report.Duration)
	return report, err
}

func (r *Runner) key(index int64) string {
	return r.config.KeyPrefix + strconv.FormatInt(index, 10)
}

func (r *Runner) chooseOperation(rnd *rand.Rand) OperationT {
	c := r.config
	sum := c.ReadProportion + c.UpdateProportion + c.InsertProportion + c.DeleteProportion
	p := rnd.Float64() * sum

	switch {
	case p < c.ReadProportion:
		return OperationTRead
	case p < c.ReadProportion+c.UpdateProportion:
		return OperationTUpdate
	case p < c.ReadProportion+c.UpdateProportion+c.InsertProportion:
		return OperationTInsert
	default:
		return OperationTDelete
	}
}

// --------------------------------------------------------------------------
// Worker
// --------------------------------------------------------------------------

type worker struct {
	id         int
	runner     *Runner
	rnd        *rand.Rand
	registry   gometrics.Registry
	histograms map[OperationT]gometrics.Histogram
}

func (w *worker) run(ctx context.Context, count int, next func(*worker) (OperationT, string)) error {
	db, err := w.runner.open()
	if err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	defer func() {
		if err := db.Cleanup(); err != nil {
			Logger.Warningf("worker %d: cleanup failed: %v", w.id, err)
		}
	}()

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		op, key := next(w)
		start := time.Now()
		status := w.do(db, op, key)
		w.record(op, status, time.Since(start))
	}
	return nil
}

func (w *worker) do(db DB, op OperationT, key string) Status {
	table := w.runner.config.Table
	switch op {
	case OperationTRead:
		_, status := db.Read(table, key, nil)
		return status
	case OperationTUpdate:
		return db.Update(table, key, w.randomRecord())
	case OperationTInsert:
		return db.Insert(table, key, w.randomRecord())
	case OperationTDelete:
		return db.Delete(table, key)
	default:
		return StatusNotImplemented
	}
}

func (w *worker) record(op OperationT, status Status, latency time.Duration) {
	h, ok := w.histograms[op]
	if !ok {
		h = gometrics.GetOrRegisterHistogram(op.String(), w.registry, gometrics.NewUniformSample(sampleSize))
		w.histograms[op] = h
	}
	h.Update(latency.Microseconds())
	gometrics.GetOrRegisterCounter(statusCounterName(op, status), w.registry).Inc(1)
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomRecord builds a record with random alphanumeric field values
func (w *worker) randomRecord() Record {
	c := w.runner.config
	values := make(Record, c.FieldCount)
	for f := 0; f < c.FieldCount; f++ {
		buf := make([]byte, c.FieldLength)
		for i := range buf {
			buf[i] = letters[w.rnd.Intn(len(letters))]
		}
		values["field"+strconv.Itoa(f)] = buf
	}
	return values
}

func statusCounterName(op OperationT, status Status) string {
	return op.String() + "/" + status.String()
}
