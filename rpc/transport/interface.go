package transport

import (
	"github.com/ValentinKolb/kvbench/rpc/common"
	"net"
	"time"
)

// --------------------------------------------------------------------------
// Client side
// --------------------------------------------------------------------------

// IClientConnector defines the medium specific part of opening a client connection.
// The line protocol session (see the line package) is built on top of it.
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint (host:port) within the timeout
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// --------------------------------------------------------------------------
// Server side
// --------------------------------------------------------------------------

// IServerConnector defines the medium specific part of accepting connections
type IServerConnector interface {
	// Listen creates a listener for the endpoint and returns it
	Listen(endpoint string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string
}
