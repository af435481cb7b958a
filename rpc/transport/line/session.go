package line

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvbench/lib/cluster"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

var Logger = logger.GetLogger("transport/line")

var (
	// ErrTimeout is returned by ReadLine if the deadline passed before any byte of the answer arrived.
	// The session stays usable.
	ErrTimeout = errors.New("read timed out")

	// ErrConnectionClosed is returned by ReadLine if the peer closed the connection before a full line arrived
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSessionClosed is returned for any operation on a session that was closed or failed before
	ErrSessionClosed = errors.New("session is closed")
)

// Session owns one connection to one endpoint. It sends and reads newline terminated lines.
//
// A session becomes invalid after any I/O failure (except a clean read timeout) or Close,
// and must then be replaced by a new one.
//
// Thread-safety: a session must not be used by more than one goroutine at a time.
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	endpoint cluster.Endpoint
	timeout  time.Duration
	valid    bool
}

// Open connects to the endpoint using the connector and applies the socket options of the config.
// The read timeout of the session is config.Timeout().
func Open(connector transport.IClientConnector, endpoint cluster.Endpoint, config common.ClientConfig) (*Session, error) {
	conn, err := connector.Connect(endpoint.String(), config.ConnectTimeout())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	if err := connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	Logger.Debugf("Opened %s session to %s", connector.GetName(), endpoint)
	return NewSession(conn, endpoint, config.Timeout()), nil
}

// NewSession wraps an established connection
func NewSession(conn net.Conn, endpoint cluster.Endpoint, timeout time.Duration) *Session {
	return &Session{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		endpoint: endpoint,
		timeout:  timeout,
		valid:    true,
	}
}

// Endpoint returns the endpoint the session was opened against
func (s *Session) Endpoint() cluster.Endpoint {
	return s.endpoint
}

// Valid reports whether the session can still be used
func (s *Session) Valid() bool {
	return s != nil && s.valid
}

// Timeout returns the current read timeout
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// SetTimeout changes the read timeout. A value <= 0 disables the timeout.
func (s *Session) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// WithTemporaryTimeout runs fn with the read timeout set to timeout. The previous timeout
// is restored on every exit path, including a panic in fn.
func (s *Session) WithTemporaryTimeout(timeout time.Duration, fn func() error) error {
	prev := s.timeout
	s.timeout = timeout
	defer func() {
		s.timeout = prev
	}()
	return fn()
}

// SendLine writes text followed by a newline. The write deadline is the current timeout.
func (s *Session) SendLine(text string) error {
	if !s.Valid() {
		return ErrSessionClosed
	}

	if err := s.conn.SetWriteDeadline(s.deadline()); err != nil {
		s.invalidate()
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, '\n')
	if _, err := s.conn.Write(buf); err != nil {
		s.invalidate()
		return fmt.Errorf("failed to write to %s: %w", s.endpoint, err)
	}
	return nil
}

// ReadLine reads one line and returns it without the line terminator.
//
// If the timeout passes before any byte was read, ErrTimeout is returned and the session stays
// valid. A timeout in the middle of a line, an EOF or any other error invalidates the session.
func (s *Session) ReadLine() (string, error) {
	if !s.Valid() {
		return "", ErrSessionClosed
	}

	if err := s.conn.SetReadDeadline(s.deadline()); err != nil {
		s.invalidate()
		return "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	line, err := s.reader.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}

	switch {
	case isTimeout(err) && line == "":
		return "", ErrTimeout
	case isTimeout(err):
		s.invalidate()
		return "", fmt.Errorf("timed out after a partial answer %q from %s: %w", line, s.endpoint, err)
	case errors.Is(err, io.EOF):
		s.invalidate()
		return "", ErrConnectionClosed
	default:
		s.invalidate()
		return "", fmt.Errorf("failed to read from %s: %w", s.endpoint, err)
	}
}

// DiscardBuffered drops data that was already received but not read, e.g. an unexpected extra
// line from the peer. It returns the number of dropped bytes.
func (s *Session) DiscardBuffered() int {
	if !s.Valid() {
		return 0
	}
	n := s.reader.Buffered()
	if n == 0 {
		return 0
	}
	discarded, _ := s.reader.Discard(n)
	Logger.Debugf("Discarded %d stale bytes from %s", discarded, s.endpoint)
	return discarded
}

// Close closes the underlying connection. It is safe to call Close multiple times.
func (s *Session) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	s.valid = false
	err := s.conn.Close()
	s.conn = nil
	return err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// deadline returns the absolute deadline for the current timeout (zero = no deadline)
func (s *Session) deadline() time.Time {
	if s.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.timeout)
}

// invalidate closes the connection after a failure
func (s *Session) invalidate() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.valid = false
}

// isTimeout checks whether err is a deadline error
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
