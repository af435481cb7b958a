package cluster

import (
	"sync"
	"testing"
)

func mustSet(t *testing.T, addrs string) *EndpointSet {
	t.Helper()
	eps, err := ParseEndpoints(addrs)
	if err != nil {
		t.Fatalf("ParseEndpoints() error = %v", err)
	}
	set, err := NewEndpointSet(eps)
	if err != nil {
		t.Fatalf("NewEndpointSet() error = %v", err)
	}
	return set
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		want    Endpoint
		wantErr bool
	}{
		{name: "ipv4", addr: "127.0.0.1:2001", want: Endpoint{Host: "127.0.0.1", Port: 2001}},
		{name: "hostname with spaces", addr: "  node-a:80 ", want: Endpoint{Host: "node-a", Port: 80}},
		{name: "ipv6", addr: "[::1]:9000", want: Endpoint{Host: "::1", Port: 9000}},
		{name: "missing port", addr: "localhost", wantErr: true},
		{name: "missing host", addr: ":2001", wantErr: true},
		{name: "port not a number", addr: "localhost:abc", wantErr: true},
		{name: "port out of range", addr: "localhost:70000", wantErr: true},
		{name: "port zero", addr: "localhost:0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEndpoint(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseEndpoint(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestParseEndpoints(t *testing.T) {
	eps, err := ParseEndpoints("127.0.0.1:2001, 127.0.0.1:2211,,127.0.0.1:2221", "10.0.0.1:1")
	if err != nil {
		t.Fatalf("ParseEndpoints() error = %v", err)
	}
	if len(eps) != 4 {
		t.Fatalf("ParseEndpoints() returned %d endpoints, want 4", len(eps))
	}
	if eps[1].Port != 2211 || eps[3].Host != "10.0.0.1" {
		t.Errorf("ParseEndpoints() = %v, unexpected order or content", eps)
	}

	if _, err := ParseEndpoints("127.0.0.1:1,broken"); err == nil {
		t.Error("ParseEndpoints() expected an error for a broken entry")
	}
}

func TestEndpointString(t *testing.T) {
	if got := (Endpoint{Host: "::1", Port: 80}).String(); got != "[::1]:80" {
		t.Errorf("String() = %q, want %q", got, "[::1]:80")
	}
	if got := (Endpoint{Host: "a", Port: 1}).String(); got != "a:1" {
		t.Errorf("String() = %q, want %q", got, "a:1")
	}
}

func TestNewEndpointSetEmpty(t *testing.T) {
	if _, err := NewEndpointSet(nil); err == nil {
		t.Fatal("NewEndpointSet(nil) should fail")
	}
}

func TestNewEndpointSetCopiesInput(t *testing.T) {
	eps := []Endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	set, err := NewEndpointSet(eps)
	if err != nil {
		t.Fatal(err)
	}
	eps[0].Host = "changed"
	if set.Current().Host != "a" {
		t.Error("EndpointSet must not alias the caller's slice")
	}
	all := set.All()
	all[1].Host = "changed"
	if set.Get(1).Host != "b" {
		t.Error("All() must return a copy")
	}
}

func TestAdvanceWraps(t *testing.T) {
	set := mustSet(t, "a:1,b:2,c:3")

	if set.Index() != 0 {
		t.Fatalf("initial index = %d, want 0", set.Index())
	}
	for _, want := range []int{1, 2, 0, 1} {
		if got := set.Advance(); got != want {
			t.Errorf("Advance() = %d, want %d", got, want)
		}
		if set.Index() != want {
			t.Errorf("Index() = %d, want %d", set.Index(), want)
		}
	}
	if set.Current().Host != "b" {
		t.Errorf("Current() = %v, want b:2", set.Current())
	}
}

func TestSetLeader(t *testing.T) {
	set := mustSet(t, "a:1,b:2,c:3")

	tests := []struct {
		name      string
		index     int
		accepted  bool
		wantIndex int
	}{
		{name: "valid index", index: 2, accepted: true, wantIndex: 2},
		{name: "same index is idempotent", index: 2, accepted: true, wantIndex: 2},
		{name: "negative index ignored", index: -1, accepted: false, wantIndex: 2},
		{name: "index out of range ignored", index: 3, accepted: false, wantIndex: 2},
		{name: "back to first", index: 0, accepted: true, wantIndex: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.SetLeader(tt.index); got != tt.accepted {
				t.Errorf("SetLeader(%d) = %v, want %v", tt.index, got, tt.accepted)
			}
			if set.Index() != tt.wantIndex {
				t.Errorf("Index() = %d, want %d", set.Index(), tt.wantIndex)
			}
		})
	}
}

func TestAdvanceConcurrent(t *testing.T) {
	set := mustSet(t, "a:1,b:2,c:3")

	const goroutines = 8
	const perGoroutine = 300

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				set.Advance()
			}
		}()
	}
	wg.Wait()

	// 2400 advances on a set of 3 must land back on 0
	if set.Index() != (goroutines*perGoroutine)%3 {
		t.Errorf("Index() = %d after concurrent advances, want %d", set.Index(), (goroutines*perGoroutine)%3)
	}
}
