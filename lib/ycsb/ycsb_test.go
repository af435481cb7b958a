package ycsb

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// memDB is a DB over a shared map, used to test the runner without a network
type memDB struct {
	mu          *sync.Mutex
	data        map[string][]byte
	initErr     error
	failDeletes bool
	cleanups    *int
}

func newMemDBFactory(initErr error) (func() (DB, error), map[string][]byte, *int) {
	mu := &sync.Mutex{}
	data := map[string][]byte{}
	cleanups := new(int)
	return func() (DB, error) {
		db := &memDB{mu: mu, data: data, initErr: initErr, cleanups: cleanups}
		if err := db.Init(); err != nil {
			return nil, err
		}
		return db, nil
	}, data, cleanups
}

func (m *memDB) Init() error { return m.initErr }

func (m *memDB) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.cleanups++
	return nil
}

func (m *memDB) Read(_, key string, _ []string) (Record, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, StatusNotFound
	}
	return Record{"field0": v}, StatusOK
}

func (m *memDB) Insert(_, key string, values Record) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	var buf []byte
	for _, v := range values {
		buf = append(buf, v...)
	}
	m.data[key] = buf
	return StatusOK
}

func (m *memDB) Update(table, key string, values Record) Status {
	return m.Insert(table, key, values)
}

func (m *memDB) Delete(_, key string) Status {
	if m.failDeletes {
		return StatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return StatusOK
}

func (m *memDB) Scan(string, string, int, []string) ([]Record, Status) {
	return nil, StatusNotImplemented
}

// --------------------------------------------------------------------------
// Status and registry
// --------------------------------------------------------------------------

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
		ok     bool
	}{
		{StatusOK, "OK", true},
		{StatusError, "ERROR", false},
		{StatusNotFound, "NOT_FOUND", true},
		{StatusNotImplemented, "NOT_IMPLEMENTED", false},
		{Status(42), "UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
			if got := tt.status.IsOK(); got != tt.ok {
				t.Errorf("IsOK() = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	open, _, _ := newMemDBFactory(nil)
	Register("test-mem", func(Properties) (DB, error) { return open() })

	db, err := Open("test-mem", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if status := db.Insert("t", "k", Record{"f": []byte("v")}); status != StatusOK {
		t.Errorf("Insert() = %v, want OK", status)
	}

	found := false
	for _, name := range Names() {
		if name == "test-mem" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, want to contain test-mem", Names())
	}

	if _, err := Open("does-not-exist", nil); err == nil {
		t.Errorf("Open(does-not-exist) error = nil, want error")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Register() twice did not panic")
		}
	}()
	Register("test-mem", func(Properties) (DB, error) { return open() })
}

func TestOpenPropagatesErrors(t *testing.T) {
	Register("test-factory-error", func(Properties) (DB, error) { return nil, errors.New("boom") })
	Register("test-init-error", func(Properties) (DB, error) { return &memDB{initErr: errors.New("no hosts")}, nil })

	tests := []string{"test-factory-error", "test-init-error"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Open(name, nil); err == nil {
				t.Errorf("Open() error = nil, want error")
			}
		})
	}
}

func TestProperties(t *testing.T) {
	props, err := ParseProperties([]string{"a=1", " b = true ", "c=x=y", "d="})
	if err != nil {
		t.Fatalf("ParseProperties() error = %v", err)
	}

	if got, _ := props.GetInt("a", 0); got != 1 {
		t.Errorf("GetInt(a) = %d, want 1", got)
	}
	if got, _ := props.GetBool("b", false); !got {
		t.Errorf("GetBool(b) = false, want true")
	}
	if got := props.GetString("c", ""); got != "x=y" {
		t.Errorf("GetString(c) = %q, want %q", got, "x=y")
	}
	if got := props.GetString("d", "default"); got != "default" {
		t.Errorf("GetString(d) = %q, want default", got)
	}
	if got, _ := props.GetInt("missing", 7); got != 7 {
		t.Errorf("GetInt(missing) = %d, want 7", got)
	}
	if _, err := props.GetInt("b", 0); err == nil {
		t.Errorf("GetInt(b) error = nil, want error")
	}
	if _, err := props.GetBool("a", false); err != nil {
		t.Errorf("GetBool(a) error = %v, want nil (1 is a bool)", err)
	}

	if _, err := ParseProperties([]string{"novalue"}); err == nil {
		t.Errorf("ParseProperties(novalue) error = nil, want error")
	}
}

// --------------------------------------------------------------------------
// Workload runner
// --------------------------------------------------------------------------

func TestWorkloadDefaults(t *testing.T) {
	c := WorkloadConfig{}.WithDefaults()
	if c.Table != "usertable" || c.KeyPrefix != "user" || c.Threads != 1 || c.FieldCount != 10 || c.FieldLength != 100 {
		t.Errorf("WithDefaults() = %+v", c)
	}
	if c.ReadProportion != 0.5 || c.UpdateProportion != 0.5 {
		t.Errorf("WithDefaults() proportions = %v/%v, want 0.5/0.5", c.ReadProportion, c.UpdateProportion)
	}
	if c.Seed == 0 {
		t.Errorf("WithDefaults() Seed = 0")
	}
	if !strings.Contains(c.String(), "OPERATION COUNT") && !strings.Contains(c.String(), "Operation Count") {
		t.Errorf("String() = %q", c.String())
	}
}

func TestWorkloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  WorkloadConfig
		wantErr bool
	}{
		{"defaults", WorkloadConfig{}, false},
		{"negative records", WorkloadConfig{RecordCount: -1}, true},
		{"negative operations", WorkloadConfig{OperationCount: -1}, true},
		{"negative proportion", WorkloadConfig{ReadProportion: 1, DeleteProportion: -0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(tt.config, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRunner() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInsertsAllRecords(t *testing.T) {
	open, data, cleanups := newMemDBFactory(nil)
	runner, err := NewRunner(WorkloadConfig{RecordCount: 103, Threads: 4, FieldCount: 3, FieldLength: 5, Seed: 1}, open)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	report, err := runner.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(data) != 103 {
		t.Errorf("records = %d, want 103", len(data))
	}
	for i := 0; i < 103; i++ {
		v, ok := data[fmt.Sprintf("user%d", i)]
		if !ok || len(v) != 15 {
			t.Errorf("user%d = %q, %v, want 15 bytes", i, v, ok)
		}
	}

	stats, ok := report.Get(OperationTInsert)
	if !ok || stats.Count != 103 || stats.Statuses[StatusOK] != 103 {
		t.Errorf("Load() insert stats = %+v", stats)
	}
	if report.Phase != "load" || report.RunID != runner.RunID() || report.Threads != 4 {
		t.Errorf("Load() report = %+v", report)
	}
	if *cleanups != 4 {
		t.Errorf("cleanups = %d, want 4", *cleanups)
	}
}

func TestRunFollowsProportions(t *testing.T) {
	open, _, _ := newMemDBFactory(nil)
	runner, err := NewRunner(WorkloadConfig{
		RecordCount:    10,
		OperationCount: 1000,
		Threads:        2,
		ReadProportion: 1,
		Seed:           1,
	}, open)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if _, err := runner.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stats, ok := report.Get(OperationTRead)
	if !ok || stats.Count != 1000 || stats.Statuses[StatusOK] != 1000 {
		t.Errorf("read stats = %+v", stats)
	}
	if _, ok := report.Get(OperationTUpdate); ok {
		t.Errorf("Run() executed updates with update proportion 0")
	}
	if report.Total() != 1000 || report.Throughput() <= 0 {
		t.Errorf("Total() = %d, Throughput() = %v", report.Total(), report.Throughput())
	}
}

func TestRunMixedWorkload(t *testing.T) {
	open, _, _ := newMemDBFactory(nil)
	runner, err := NewRunner(WorkloadConfig{
		RecordCount:      20,
		OperationCount:   400,
		Threads:          4,
		ReadProportion:   0.4,
		UpdateProportion: 0.2,
		InsertProportion: 0.2,
		DeleteProportion: 0.2,
		Seed:             7,
	}, open)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Total() != 400 {
		t.Errorf("Total() = %d, want 400", report.Total())
	}
	for _, op := range Operations {
		if stats, ok := report.Get(op); !ok || stats.Count == 0 {
			t.Errorf("no %s operations in a mixed workload", op)
		}
	}
	if report.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", report.Failed())
	}
}

func TestRunCountsErrors(t *testing.T) {
	mu := &sync.Mutex{}
	data := map[string][]byte{}
	cleanups := new(int)
	open := func() (DB, error) {
		return &memDB{mu: mu, data: data, cleanups: cleanups, failDeletes: true}, nil
	}

	runner, _ := NewRunner(WorkloadConfig{RecordCount: 5, OperationCount: 50, DeleteProportion: 1, Seed: 1}, open)
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Failed() != 50 {
		t.Errorf("Failed() = %d, want 50", report.Failed())
	}
	if !strings.Contains(report.String(), "[DELETE], Return=ERROR, 50") {
		t.Errorf("String() = %s", report.String())
	}
}

func TestRunOpenFailure(t *testing.T) {
	open, _, _ := newMemDBFactory(errors.New("unreachable"))
	runner, _ := NewRunner(WorkloadConfig{RecordCount: 5, OperationCount: 5, Threads: 2}, open)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Errorf("Run() error = nil, want error")
	}
}

func TestRunCanceled(t *testing.T) {
	open, _, _ := newMemDBFactory(nil)
	runner, _ := NewRunner(WorkloadConfig{RecordCount: 5, OperationCount: 100}, open)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if report.Total() != 0 {
		t.Errorf("Total() = %d, want 0", report.Total())
	}
}

func TestReportCSV(t *testing.T) {
	open, _, _ := newMemDBFactory(nil)
	runner, _ := NewRunner(WorkloadConfig{RecordCount: 10, OperationCount: 10, Seed: 3}, open)
	load, _ := runner.Load(context.Background())
	run, _ := runner.Run(context.Background())

	var buf bytes.Buffer
	if err := load.WriteCSV(&buf, true); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if err := run.WriteCSV(&buf, false); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	// header + load insert + run read/update (one or both)
	if len(rows) < 3 {
		t.Fatalf("rows = %d, want at least 3", len(rows))
	}
	if rows[0][0] != "RunID" || rows[1][1] != "load" || rows[1][2] != "INSERT" {
		t.Errorf("rows = %v", rows[:2])
	}
	for _, row := range rows {
		if len(row) != len(rows[0]) {
			t.Errorf("row %v has %d columns, want %d", row, len(row), len(rows[0]))
		}
	}
}
