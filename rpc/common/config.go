package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultTimeoutMillisecond      = 5000
	DefaultWriteTimeoutMillisecond = 500
	DefaultRetryCount              = 3
	DefaultLogLevel                = "info"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// TCPConf holds socket options applied to every client connection (see tcp.UpgradeConnection)
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientConfig holds all parameters of the resilient line protocol client.
type ClientConfig struct {
	// Endpoints is the ordered list of cluster members (host:port).
	// The position in this list is the node index used by leader redirects.
	Endpoints []string

	// TimeoutMillisecond is the read timeout for get commands and the write deadline for all commands
	TimeoutMillisecond int
	// WriteTimeoutMillisecond is the (short) time to wait for an answer to put/del commands.
	// Successful writes are not acknowledged by every server, so a timeout counts as success.
	WriteTimeoutMillisecond int
	// ConnectTimeoutMillisecond bounds dialing a member. Zero means TimeoutMillisecond.
	ConnectTimeoutMillisecond int

	// RetryCount is the budget for transient failures (busy answers and connection errors) per operation
	RetryCount int
	// RedirectLimit bounds how many leader redirects are followed per operation. Zero means cluster size.
	RedirectLimit int
	// RetryBackoffMillisecond is the initial backoff between transient retries (doubled each time). Zero disables it.
	RetryBackoffMillisecond int

	// RandomStart picks a random member as the initial target instead of the first one
	RandomStart bool

	TCPConf TCPConf

	// Logging configuration
	LogLevel string
}

// WithDefaults returns a copy of the config where all unset values are replaced by their defaults
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.TimeoutMillisecond <= 0 {
		c.TimeoutMillisecond = DefaultTimeoutMillisecond
	}
	if c.WriteTimeoutMillisecond <= 0 {
		c.WriteTimeoutMillisecond = DefaultWriteTimeoutMillisecond
	}
	if c.ConnectTimeoutMillisecond <= 0 {
		c.ConnectTimeoutMillisecond = c.TimeoutMillisecond
	}
	if c.RetryCount <= 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.RedirectLimit <= 0 {
		c.RedirectLimit = len(c.Endpoints)
	}
	if c.RetryBackoffMillisecond < 0 {
		c.RetryBackoffMillisecond = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// Validate checks that the configuration can be used to create a client
func (c ClientConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	if _, err := ParseLogLevel(c.LogLevel); c.LogLevel != "" && err != nil {
		return err
	}
	return nil
}

// Timeout returns the read timeout as a duration
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillisecond) * time.Millisecond
}

// WriteTimeout returns the write acknowledgement timeout as a duration
func (c ClientConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMillisecond) * time.Millisecond
}

// ConnectTimeout returns the dial timeout as a duration
func (c ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMillisecond) * time.Millisecond
}

// RetryBackoff returns the initial retry backoff as a duration
func (c ClientConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMillisecond) * time.Millisecond
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d ms", c.TimeoutMillisecond))
	addField("Write Timeout", fmt.Sprintf("%d ms", c.WriteTimeoutMillisecond))
	addField("Connect Timeout", fmt.Sprintf("%d ms", c.ConnectTimeoutMillisecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Redirect Limit", strconv.Itoa(c.RedirectLimit))
	addField("Retry Backoff", fmt.Sprintf("%d ms", c.RetryBackoffMillisecond))
	addField("Random Start", strconv.FormatBool(c.RandomStart))

	// Socket options
	addSection("TCP")
	addField("No Delay", strconv.FormatBool(c.TCPConf.TCPNoDelay))
	addField("Keep Alive", fmt.Sprintf("%d sec", c.TCPConf.TCPKeepAliveSec))
	addField("Linger", fmt.Sprintf("%d sec", c.TCPConf.TCPLingerSec))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Dev cluster server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all parameters of the in-process line protocol cluster (see the server package)
type ServerConfig struct {
	// Endpoints are the listen addresses of the simulated members, in node index order
	Endpoints []string
	// Leader is the initial leader index
	Leader int
	// RedirectReads makes followers answer get commands with a redirect as well
	RedirectReads bool
	// SilentWrites makes the leader acknowledge successful writes with no answer at all
	SilentWrites bool
	// LeaderRotateMillisecond moves the leader to the next member periodically. Zero disables it.
	LeaderRotateMillisecond int
	// MetricsEndpoint is an optional http address exposing prometheus metrics
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the server configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Line Protocol Cluster")
	addField("Leader", strconv.Itoa(c.Leader))
	addField("Redirect Reads", strconv.FormatBool(c.RedirectReads))
	addField("Silent Writes", strconv.FormatBool(c.SilentWrites))
	if c.LeaderRotateMillisecond > 0 {
		addField("Leader Rotation", fmt.Sprintf("%d ms", c.LeaderRotateMillisecond))
	} else {
		addField("Leader Rotation", "disabled")
	}
	if c.MetricsEndpoint != "" {
		addField("Metrics", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Members")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
