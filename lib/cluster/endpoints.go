package cluster

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
)

var Logger = logger.GetLogger("cluster")

// --------------------------------------------------------------------------
// Endpoint
// --------------------------------------------------------------------------

// Endpoint is the address of a single cluster member. It is immutable once parsed
// and identified by its position in an EndpointSet.
type Endpoint struct {
	Host string
	Port int
}

// String returns the endpoint in host:port form (IPv6 hosts are bracketed)
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses a single host:port address
func ParseEndpoint(addr string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", addr, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: missing host", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: port must be a number between 1 and 65535", addr)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// ParseEndpoints parses a list of host:port addresses. Each item may itself be a
// comma separated list, empty items are skipped.
func ParseEndpoints(addrs ...string) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(addrs))
	for _, item := range addrs {
		for _, addr := range strings.Split(item, ",") {
			if strings.TrimSpace(addr) == "" {
				continue
			}
			ep, err := ParseEndpoint(addr)
			if err != nil {
				return nil, err
			}
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints, nil
}

// --------------------------------------------------------------------------
// Endpoint Set
// --------------------------------------------------------------------------

// EndpointSet is an ordered, fixed list of cluster members together with a cursor
// pointing at the member that is currently assumed to be the leader.
//
// Thread-safety: the cursor is updated with atomic operations, so a set may be shared
// by several clients. The member list itself is never modified after creation.
type EndpointSet struct {
	endpoints []Endpoint
	current   atomic.Int64
}

// NewEndpointSet creates a new endpoint set with the cursor at index 0.
// It fails if no endpoints are given.
func NewEndpointSet(endpoints []Endpoint) (*EndpointSet, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided")
	}
	eps := make([]Endpoint, len(endpoints))
	copy(eps, endpoints)
	return &EndpointSet{endpoints: eps}, nil
}

// Current returns the endpoint the cursor points to
func (s *EndpointSet) Current() Endpoint {
	return s.endpoints[s.current.Load()]
}

// Index returns the current cursor position
func (s *EndpointSet) Index() int {
	return int(s.current.Load())
}

// Size returns the number of endpoints in the set
func (s *EndpointSet) Size() int {
	return len(s.endpoints)
}

// Get returns the endpoint at the given index
func (s *EndpointSet) Get(index int) Endpoint {
	return s.endpoints[index]
}

// All returns a copy of all endpoints in order
func (s *EndpointSet) All() []Endpoint {
	eps := make([]Endpoint, len(s.endpoints))
	copy(eps, s.endpoints)
	return eps
}

// Advance moves the cursor to the next endpoint (wrapping around) and returns the new index
func (s *EndpointSet) Advance() int {
	size := int64(len(s.endpoints))
	for {
		old := s.current.Load()
		next := (old + 1) % size
		if s.current.CompareAndSwap(old, next) {
			Logger.Debugf("Advanced cursor from %s (%d) to %s (%d)", s.endpoints[old], old, s.endpoints[next], next)
			return int(next)
		}
	}
}

// SetLeader moves the cursor to index. Indices outside [0, size) are ignored since
// they can only come from a malformed redirect. It returns whether the index was accepted.
func (s *EndpointSet) SetLeader(index int) bool {
	if index < 0 || index >= len(s.endpoints) {
		Logger.Warningf("Ignoring leader index %d (cluster has %d members)", index, len(s.endpoints))
		return false
	}
	s.current.Store(int64(index))
	return true
}

// String returns a comma separated list of all endpoints
func (s *EndpointSet) String() string {
	parts := make([]string, len(s.endpoints))
	for i, ep := range s.endpoints {
		parts[i] = ep.String()
	}
	return strings.Join(parts, ",")
}
