package client

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvbench/lib/cluster"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
	"github.com/ValentinKolb/kvbench/rpc/transport"
	"github.com/ValentinKolb/kvbench/rpc/transport/line"
	"github.com/ValentinKolb/kvbench/rpc/transport/tcp"
	"github.com/lni/dragonboat/v4/logger"
	"math/rand"
	"sync"
	"time"
)

var Logger = logger.GetLogger("rpc")

// Executor runs single commands against the cluster and hides leader changes, busy members
// and broken connections from the caller. Every call to Execute yields exactly one outcome:
// a terminal protocol.Outcome with a nil error, or a failure wrapping one of the errors
// declared in errors.go.
//
// An executor owns at most one session at a time. Calls to Execute are serialized.
type Executor struct {
	mu sync.Mutex

	config        common.ClientConfig
	endpoints     *cluster.EndpointSet
	connector     transport.IClientConnector
	redirectLimit int

	session *line.Session
	closed  bool
}

// NewExecutor creates an executor over an existing endpoint set. No connection is opened
// until the first call to Execute.
//
// If config.RedirectLimit is not set the size of the endpoint set is used.
func NewExecutor(config common.ClientConfig, endpoints *cluster.EndpointSet, connector transport.IClientConnector) *Executor {
	redirectLimit := config.RedirectLimit
	if redirectLimit <= 0 {
		redirectLimit = endpoints.Size()
	}

	config = config.WithDefaults()
	config.RedirectLimit = redirectLimit

	return &Executor{
		config:        config,
		endpoints:     endpoints,
		connector:     connector,
		redirectLimit: redirectLimit,
	}
}

// NewTCPExecutor parses config.Endpoints into a fresh endpoint set and returns an executor
// using the tcp connector. With config.RandomStart the cursor starts at a random member.
func NewTCPExecutor(config common.ClientConfig) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, err := cluster.ParseEndpoints(config.Endpoints...)
	if err != nil {
		return nil, err
	}

	endpoints, err := cluster.NewEndpointSet(parsed)
	if err != nil {
		return nil, err
	}

	if config.RandomStart {
		endpoints.SetLeader(rand.Intn(endpoints.Size()))
	}

	return NewExecutor(config, endpoints, tcp.NewClientConnector()), nil
}

// Endpoints returns the endpoint set the executor works on
func (e *Executor) Endpoints() *cluster.EndpointSet {
	return e.endpoints
}

// Config returns the effective configuration (defaults applied)
func (e *Executor) Config() common.ClientConfig {
	return e.config
}

// --------------------------------------------------------------------------
// Execution
// --------------------------------------------------------------------------

// Execute sends the command to the current leader candidate and returns its terminal outcome.
//
// Redirects move the cursor to the named member and re-send the command without consuming the
// retry budget, bounded by the redirect limit. Busy answers and connection errors advance the
// cursor to the next member and consume one unit of the budget. A bad command fails at once.
func (e *Executor) Execute(cmd protocol.Command) (protocol.Outcome, error) {
	req, err := protocol.Encode(cmd)
	if err != nil {
		malformedTotal.Inc()
		return protocol.Outcome{Type: protocol.OutcomeTMalformed}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return protocol.Outcome{Type: protocol.OutcomeTConnectionError}, ErrClosed
	}

	start := time.Now()
	defer observeOperation(cmd.Type, start)

	budget := e.config.RetryCount
	backoff := e.config.RetryBackoff()
	redirects := 0
	var lastErr error

	for budget > 0 {
		// (re)connect if there is no session bound to the current candidate
		if !e.session.Valid() || e.session.Endpoint() != e.endpoints.Current() {
			if err := e.connect(); err != nil {
				lastErr = err
				connectionRetriesTotal.Inc()
				budget--
				e.rotate(&backoff, budget, err)
				continue
			}
		}

		attemptsTotal.Inc()
		outcome, err := e.attempt(cmd, req)

		switch outcome.Type {
		case protocol.OutcomeTValue, protocol.OutcomeTNotFound, protocol.OutcomeTEmpty:
			return outcome, nil

		case protocol.OutcomeTRedirect:
			redirects++
			redirectsTotal.Inc()
			if redirects > e.redirectLimit {
				redirectLimitTotal.Inc()
				Logger.Warningf("Giving up on %s after %d redirects, last answer was %q", cmd, e.redirectLimit, outcome.Raw)
				return outcome, fmt.Errorf("%w: %d redirects for %s, last answer %q", ErrRedirectLimit, e.redirectLimit, cmd.Type, outcome.Raw)
			}
			e.follow(outcome.Leader)

		case protocol.OutcomeTBusy:
			lastErr = fmt.Errorf("%w: %s answered %q", ErrBusy, e.session.Endpoint(), outcome.Raw)
			busyRetriesTotal.Inc()
			budget--
			e.rotate(&backoff, budget, lastErr)

		case protocol.OutcomeTConnectionError:
			lastErr = fmt.Errorf("%w: %w", ErrConnection, err)
			connectionRetriesTotal.Inc()
			budget--
			e.rotate(&backoff, budget, lastErr)

		default:
			malformedTotal.Inc()
			Logger.Errorf("%s answered %q to %q", e.session.Endpoint(), outcome.Raw, req)
			return outcome, fmt.Errorf("%w: %s answered %q to %q", ErrMalformed, e.session.Endpoint(), outcome.Raw, req)
		}
	}

	retriesExhaustedTotal.Inc()
	Logger.Warningf("Giving up on %s after %d attempts: %v", cmd, e.config.RetryCount, lastErr)
	return protocol.Outcome{Type: protocol.OutcomeTConnectionError}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, e.config.RetryCount, lastErr)
}

// Close releases the session. Later calls to Execute fail with ErrClosed.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return e.closeSession()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// attempt sends one request over the current session and waits for the answer.
// A write that gets no answer within the write timeout is acknowledged. Its answer may still
// arrive later, so the session is dropped and the next command starts on a fresh connection.
func (e *Executor) attempt(cmd protocol.Command, req string) (protocol.Outcome, error) {
	if n := e.session.DiscardBuffered(); n > 0 {
		staleBytesTotal.Add(n)
	}

	if err := e.session.SendLine(req); err != nil {
		return protocol.Outcome{Type: protocol.OutcomeTConnectionError}, err
	}

	if !cmd.Type.IsWrite() {
		answer, err := e.session.ReadLine()
		if err != nil {
			return protocol.Outcome{Type: protocol.OutcomeTConnectionError}, err
		}
		return protocol.Decode(answer, false), nil
	}

	var answer string
	err := e.session.WithTemporaryTimeout(e.config.WriteTimeout(), func() (err error) {
		answer, err = e.session.ReadLine()
		return err
	})

	switch {
	case errors.Is(err, line.ErrTimeout):
		writeTimeoutAcksTotal.Inc()
		Logger.Debugf("No answer to %s from %s within %s, closing session", cmd.Type, e.session.Endpoint(), e.config.WriteTimeout())
		e.closeSession()
		return protocol.Outcome{Type: protocol.OutcomeTEmpty}, nil
	case err != nil:
		return protocol.Outcome{Type: protocol.OutcomeTConnectionError}, err
	}
	return protocol.Decode(answer, true), nil
}

// connect replaces the session with a new one to the current candidate
func (e *Executor) connect() error {
	e.closeSession()

	session, err := line.Open(e.connector, e.endpoints.Current(), e.config)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	connectsTotal.Inc()
	e.session = session
	return nil
}

// follow moves the cursor to the member named in a redirect. The command is re-sent on the
// same session if the redirect names the current member or an unknown one.
func (e *Executor) follow(leader int) {
	if leader == e.endpoints.Index() {
		Logger.Debugf("Redirected to the current member %d, re-sending", leader)
		return
	}
	if !e.endpoints.SetLeader(leader) {
		return
	}
	Logger.Debugf("Following redirect to member %d (%s)", leader, e.endpoints.Current())
	e.closeSession()
}

// rotate drops the session and moves the cursor to the next member. Unless this was the last
// attempt it waits for the backoff (with +-10% jitter) and doubles it.
func (e *Executor) rotate(backoff *time.Duration, budget int, cause error) {
	e.closeSession()
	next := e.endpoints.Advance()
	Logger.Debugf("Retrying with member %d, %d attempts left: %v", next, budget, cause)

	if budget <= 0 || *backoff <= 0 {
		return
	}
	jitter := float64(*backoff) * (0.9 + 0.2*rand.Float64())
	time.Sleep(time.Duration(jitter))
	*backoff *= 2
}

func (e *Executor) closeSession() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
