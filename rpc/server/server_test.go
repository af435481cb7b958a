package server

import (
	"bufio"
	"errors"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/lstore"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestCluster(t *testing.T, config common.ServerConfig) *Cluster {
	t.Helper()
	if len(config.Endpoints) == 0 {
		config.Endpoints = []string{"127.0.0.1:0", "127.0.0.1:0", "127.0.0.1:0"}
	}
	c, err := NewCluster(config, lstore.NewLocalStore())
	if err != nil {
		t.Fatalf("NewCluster() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type rawConn struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *rawConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &rawConn{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// roundTrip sends one line and returns the answer, ok=false if none arrived within timeout
func (r *rawConn) roundTrip(line string, timeout time.Duration) (string, bool) {
	r.t.Helper()
	if _, err := r.conn.Write([]byte(line + "\n")); err != nil {
		return "", false
	}
	_ = r.conn.SetReadDeadline(time.Now().Add(timeout))
	answer, err := r.reader.ReadString('\n')
	if err != nil {
		return "", false
	}
	return strings.TrimRight(answer, "\n"), true
}

func TestNewClusterInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config common.ServerConfig
	}{
		{"no endpoints", common.ServerConfig{}},
		{"leader out of range", common.ServerConfig{Endpoints: []string{"127.0.0.1:0"}, Leader: 1}},
		{"negative leader", common.ServerConfig{Endpoints: []string{"127.0.0.1:0"}, Leader: -1}},
		{"bad address", common.ServerConfig{Endpoints: []string{"not an address"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c, err := NewCluster(tt.config, lstore.NewLocalStore()); err == nil {
				_ = c.Close()
				t.Errorf("NewCluster() error = nil, want error")
			}
		})
	}
}

func TestClusterAnswers(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{Leader: 1})
	addrs := c.Addrs()
	leader := dial(t, addrs[1])
	follower := dial(t, addrs[0])

	tests := []struct {
		name string
		conn *rawConn
		req  string
		want string
	}{
		{"missing key", leader, "get foo", "key not found"},
		{"follower redirects write", follower, "put foo bar", "leader is 1"},
		{"leader acks write", leader, "put foo hello+world", ""},
		{"leader reads value", leader, "get foo", "hello+world"},
		{"follower serves read", follower, "get foo", "hello+world"},
		{"follower redirects delete", follower, "del foo", "leader is 1"},
		{"leader acks delete", leader, "del foo", ""},
		{"deleted key", leader, "get foo", "key not found"},
		{"unknown verb", leader, "incr foo", "bad command"},
		{"missing key argument", leader, "get", "bad command"},
		{"too many arguments", follower, "get a b", "bad command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.conn.roundTrip(tt.req, time.Second)
			if !ok || got != tt.want {
				t.Errorf("roundTrip(%q) = %q, %v, want %q", tt.req, got, ok, tt.want)
			}
		})
	}
}

func TestClusterRedirectReads(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{RedirectReads: true})
	follower := dial(t, c.Addrs()[2])

	if got, _ := follower.roundTrip("get foo", time.Second); got != "leader is 0" {
		t.Errorf("roundTrip(get) = %q, want %q", got, "leader is 0")
	}
}

func TestClusterSilentWrites(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{SilentWrites: true})
	leader := dial(t, c.Addrs()[0])

	if got, ok := leader.roundTrip("put foo bar", 100*time.Millisecond); ok {
		t.Fatalf("roundTrip(put) = %q, want no answer", got)
	}
	// the write is visible on a new connection
	leader = dial(t, c.Addrs()[0])
	if got, _ := leader.roundTrip("get foo", time.Second); got != "bar" {
		t.Errorf("roundTrip(get) = %q, want %q", got, "bar")
	}
}

func TestClusterSetLeaderAndBusy(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{})
	conn := dial(t, c.Addrs()[2])

	c.SetLeader(2)
	if c.Leader() != 2 {
		t.Fatalf("Leader() = %d, want 2", c.Leader())
	}
	if got, _ := conn.roundTrip("put k v", time.Second); got != "" {
		t.Errorf("roundTrip(put) on new leader = %q, want empty ack", got)
	}

	c.SetLeader(7)
	if c.Leader() != 2 {
		t.Errorf("Leader() after invalid SetLeader = %d, want 2", c.Leader())
	}

	c.SetBusy(2, true)
	if got, _ := conn.roundTrip("get k", time.Second); got != "retry" {
		t.Errorf("roundTrip(get) on busy member = %q, want retry", got)
	}
	c.SetBusy(2, false)
	if got, _ := conn.roundTrip("get k", time.Second); got != "v" {
		t.Errorf("roundTrip(get) = %q, want v", got)
	}
}

func TestClusterLeaderRotation(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{LeaderRotateMillisecond: 20})

	deadline := time.Now().Add(2 * time.Second)
	for c.Leader() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("leader did not rotate")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClusterHandle(t *testing.T) {
	c := newTestCluster(t, common.ServerConfig{})
	if answer, reply := c.Handle(0, "put k "+protocol.EncodeValue([]byte("a b"))); !reply || answer != "" {
		t.Fatalf("Handle(put) = %q, %v", answer, reply)
	}
	if answer, _ := c.Handle(1, "get k"); answer != "a+b" {
		t.Errorf("Handle(get) = %q, want %q", answer, "a+b")
	}
}

// failingStore fails every call with err
type failingStore struct {
	err error
}

func (s failingStore) Set(string, []byte) error         { return s.err }
func (s failingStore) Delete(string) error              { return s.err }
func (s failingStore) Get(string) ([]byte, bool, error) { return nil, false, s.err }
func (s failingStore) Has(string) (bool, error)         { return false, s.err }

func TestAdapterStoreErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid operation", store.NewError(store.RetCInvalidOperation, "invalid key"), protocol.RespBadCommand},
		{"unavailable", store.NewError(store.RetCUnavailable, "down"), protocol.RespRetry},
		{"plain error", errors.New("boom"), protocol.RespRetry},
	}

	adapter := NewIStoreServerAdapter(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, cmd := range []protocol.Command{protocol.Get("k"), protocol.Put("k", []byte("v")), protocol.Delete("k")} {
				answer, reply := adapter.Handle(cmd, failingStore{err: tt.err})
				if !reply || answer != tt.want {
					t.Errorf("Handle(%s) = %q, %v, want %q", cmd.Type, answer, reply, tt.want)
				}
			}
		})
	}
}

func TestClusterMetricsEndpoint(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	c := newTestCluster(t, common.ServerConfig{MetricsEndpoint: addr})
	c.Handle(0, "get k")

	var body []byte
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			body, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("GET /metrics error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !strings.Contains(string(body), "kvbench_server_requests_total") {
		t.Errorf("/metrics does not contain kvbench_server_requests_total:\n%s", body)
	}
}

func TestClusterCloseIsIdempotent(t *testing.T) {
	c, err := NewCluster(common.ServerConfig{Endpoints: []string{"127.0.0.1:0"}}, lstore.NewLocalStore())
	if err != nil {
		t.Fatalf("NewCluster() error = %v", err)
	}
	conn := dial(t, c.Addrs()[0])
	if got, _ := conn.roundTrip("get k", time.Second); got != "key not found" {
		t.Fatalf("roundTrip() = %q", got)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	c.Wait()

	if _, ok := conn.roundTrip("get k", 200*time.Millisecond); ok {
		t.Errorf("roundTrip() after Close got an answer")
	}
}
