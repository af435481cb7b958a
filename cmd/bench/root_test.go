package bench

import (
	"github.com/ValentinKolb/kvbench/lib/ycsb"
	"github.com/ValentinKolb/kvbench/lib/ycsb/linekv"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestClientProperties(t *testing.T) {
	config := common.ClientConfig{
		Endpoints:                 []string{"10.0.0.1:7000", "10.0.0.2:7000"},
		TimeoutMillisecond:        2000,
		WriteTimeoutMillisecond:   250,
		ConnectTimeoutMillisecond: 100,
		RetryCount:                5,
		RedirectLimit:             4,
		RetryBackoffMillisecond:   10,
		RandomStart:               false,
		TCPConf:                   common.TCPConf{TCPNoDelay: true},
	}

	got, err := linekv.ConfigFromProperties(clientProperties(config))
	if err != nil {
		t.Fatalf("ConfigFromProperties() error = %v", err)
	}

	if !reflect.DeepEqual(got.Client.Endpoints, config.Endpoints) {
		t.Errorf("Endpoints = %v, want %v", got.Client.Endpoints, config.Endpoints)
	}
	if got.Client.TimeoutMillisecond != 2000 || got.Client.WriteTimeoutMillisecond != 250 || got.Client.ConnectTimeoutMillisecond != 100 {
		t.Errorf("timeouts = %d/%d/%d, want 2000/250/100",
			got.Client.TimeoutMillisecond, got.Client.WriteTimeoutMillisecond, got.Client.ConnectTimeoutMillisecond)
	}
	if got.Client.RetryCount != 5 || got.Client.RedirectLimit != 4 || got.Client.RetryBackoffMillisecond != 10 {
		t.Errorf("retries = %d/%d/%d, want 5/4/10",
			got.Client.RetryCount, got.Client.RedirectLimit, got.Client.RetryBackoffMillisecond)
	}
	if got.Client.RandomStart {
		t.Errorf("RandomStart = true, want false")
	}
	if !got.Client.TCPConf.TCPNoDelay {
		t.Errorf("TCPNoDelay = false, want true")
	}
}

func TestWriteResultsToCSV(t *testing.T) {
	reports := []*ycsb.Report{
		{
			RunID:    "run",
			Phase:    "load",
			Threads:  1,
			Duration: time.Second,
			Operations: []ycsb.OperationStats{
				{Operation: ycsb.OperationTInsert, Count: 10, Statuses: map[ycsb.Status]int64{ycsb.StatusOK: 10}},
			},
		},
		{
			RunID:    "run",
			Phase:    "run",
			Threads:  1,
			Duration: time.Second,
			Operations: []ycsb.OperationStats{
				{Operation: ycsb.OperationTRead, Count: 4, Statuses: map[ycsb.Status]int64{ycsb.StatusOK: 4}},
				{Operation: ycsb.OperationTUpdate, Count: 6, Statuses: map[ycsb.Status]int64{ycsb.StatusOK: 6}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "results.csv")
	if err := writeResultsToCSV(path, reports); err != nil {
		t.Fatalf("writeResultsToCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4 (header + 3 rows):\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "RunID,Phase,Operation") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "run,load,INSERT") || !strings.HasPrefix(lines[3], "run,run,UPDATE") {
		t.Errorf("unexpected rows:\n%s", data)
	}
}
