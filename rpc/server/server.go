package server

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
	"github.com/ValentinKolb/kvbench/rpc/transport"
	"github.com/ValentinKolb/kvbench/rpc/transport/tcp"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("server")

// maxLineSize bounds a single request line (key plus encoded value)
const maxLineSize = 16 * 1024 * 1024

// Cluster simulates a leader based replicated key-value cluster in one process.
// Every member listens on its own endpoint and speaks the line protocol. All members share one
// store and agree on one leader index:
//
//   - the leader executes commands via the adapter
//   - followers answer writes (and reads, if RedirectReads is set) with "leader is <leader>"
//   - a member marked busy answers every command with "retry"
//   - unparseable lines are answered with "bad command"
//
// Usage:
//
//	c, err := server.NewCluster(common.ServerConfig{
//		Endpoints: []string{":7000", ":7001", ":7002"},
//	}, lstore.NewLocalStore())
//	if err != nil {
//		panic(err)
//	}
//	defer c.Close()
//	c.Wait()
type Cluster struct {
	config    common.ServerConfig
	store     store.IStore
	adapter   IServerAdapter
	connector transport.IServerConnector

	listeners []net.Listener
	addrs     []string
	leader    atomic.Int64
	busy      []atomic.Bool

	conns    *xsync.MapOf[uint64, net.Conn]
	nextConn atomic.Uint64

	metricsServer *http.Server

	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewCluster opens one listener per configured endpoint and starts serving immediately.
// Endpoints may use port 0, the bound addresses are returned by Addrs.
func NewCluster(config common.ServerConfig, store store.IStore) (*Cluster, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided")
	}
	if config.Leader < 0 || config.Leader >= len(config.Endpoints) {
		return nil, fmt.Errorf("leader %d out of range [0, %d)", config.Leader, len(config.Endpoints))
	}

	c := &Cluster{
		config:    config,
		store:     store,
		adapter:   NewIStoreServerAdapter(config.SilentWrites),
		connector: tcp.NewServerConnector(),
		busy:      make([]atomic.Bool, len(config.Endpoints)),
		conns:     xsync.NewMapOf[uint64, net.Conn](),
		stopCh:    make(chan struct{}),
	}
	c.leader.Store(int64(config.Leader))

	for i, endpoint := range config.Endpoints {
		listener, err := c.connector.Listen(endpoint)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		c.listeners = append(c.listeners, listener)
		c.addrs = append(c.addrs, listener.Addr().String())
	}

	if config.MetricsEndpoint != "" {
		c.startMetricsServer(config.MetricsEndpoint)
	}

	for i, listener := range c.listeners {
		c.wg.Add(1)
		go c.acceptLoop(i, listener)
		Logger.Infof("Member %d listening on %s (%s)", i, c.addrs[i], c.connector.GetName())
	}

	if config.LeaderRotateMillisecond > 0 {
		c.wg.Add(1)
		go c.rotateLeader(time.Duration(config.LeaderRotateMillisecond) * time.Millisecond)
	}

	Logger.Infof("Created line protocol cluster")
	Logger.Infof("%s", config.String())
	return c, nil
}

// Addrs returns the bound address of every member in node index order
func (c *Cluster) Addrs() []string {
	return append([]string(nil), c.addrs...)
}

// Leader returns the current leader index
func (c *Cluster) Leader() int {
	return int(c.leader.Load())
}

// SetLeader changes the leader. Out of range indices are ignored.
func (c *Cluster) SetLeader(index int) {
	if index < 0 || index >= len(c.addrs) {
		Logger.Warningf("Ignoring invalid leader index %d", index)
		return
	}
	if prev := c.leader.Swap(int64(index)); prev != int64(index) {
		Logger.Infof("Leader changed from %d to %d", prev, index)
	}
}

// SetBusy makes a member answer every command with "retry"
func (c *Cluster) SetBusy(member int, busy bool) {
	if member < 0 || member >= len(c.busy) {
		return
	}
	c.busy[member].Store(busy)
}

// Wait blocks until the cluster is closed
func (c *Cluster) Wait() {
	<-c.stopCh
	c.wg.Wait()
}

// Close stops all listeners, drops all open connections and waits for the handlers to finish.
// It is safe to call Close multiple times.
func (c *Cluster) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		close(c.stopCh)
		for _, listener := range c.listeners {
			if err := listener.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.conns.Range(func(_ uint64, conn net.Conn) bool {
			_ = conn.Close()
			return true
		})
		if c.metricsServer != nil {
			_ = c.metricsServer.Close()
		}
		c.wg.Wait()
		Logger.Infof("Cluster closed")
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

func (c *Cluster) acceptLoop(member int, listener net.Listener) {
	defer c.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}
			Logger.Errorf("Member %d failed to accept connection: %v", member, err)
			return
		}

		id := c.nextConn.Add(1)
		c.conns.Store(id, conn)
		select {
		case <-c.stopCh:
			// Close already dropped the registered connections
			c.conns.Delete(id)
			_ = conn.Close()
			return
		default:
		}
		c.wg.Add(1)
		go c.serveConn(member, id, conn)
	}
}

func (c *Cluster) serveConn(member int, id uint64, conn net.Conn) {
	defer c.wg.Done()
	defer func() {
		c.conns.Delete(id)
		_ = conn.Close()
	}()
	Logger.Debugf("Member %d accepted connection from %s", member, conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		answer, reply := c.Handle(member, scanner.Text())
		if !reply {
			continue
		}
		if _, err := conn.Write([]byte(answer + "\n")); err != nil {
			Logger.Debugf("Member %d failed to answer %s: %v", member, conn.RemoteAddr(), err)
			return
		}
	}
}

// Handle computes the answer of a member to one request line
func (c *Cluster) Handle(member int, line string) (answer string, reply bool) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		metrics.GetOrCreateCounter(`kvbench_server_requests_total{answer="bad_command"}`).Inc()
		Logger.Debugf("Member %d got %v", member, err)
		return protocol.RespBadCommand, true
	}

	if c.busy[member].Load() {
		metrics.GetOrCreateCounter(`kvbench_server_requests_total{answer="retry"}`).Inc()
		return protocol.RespRetry, true
	}

	leader := c.Leader()
	if member != leader && (cmd.Type.IsWrite() || c.config.RedirectReads) {
		metrics.GetOrCreateCounter(`kvbench_server_requests_total{answer="redirect"}`).Inc()
		return protocol.FormatRedirect(leader), true
	}

	metrics.GetOrCreateCounter(`kvbench_server_requests_total{answer="` + cmd.Type.String() + `"}`).Inc()
	return c.adapter.Handle(cmd, c.store)
}

// --------------------------------------------------------------------------
// Background tasks
// --------------------------------------------------------------------------

func (c *Cluster) rotateLeader(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.SetLeader((c.Leader() + 1) % len(c.addrs))
		}
	}
}

func (c *Cluster) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	c.metricsServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", addr)
		if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics server failed: %v", err)
		}
	}()
}
