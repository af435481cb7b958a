package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Server answers of the line protocol
const (
	RespNotFound   = "key not found"
	RespRetry      = "retry"
	RespBadCommand = "bad command"
	RespEmpty      = ""

	redirectPrefix = "leader is "
)

// FormatRedirect creates the answer that points a client to the leader with the given node index
func FormatRedirect(leader int) string {
	return redirectPrefix + strconv.Itoa(leader)
}

// --------------------------------------------------------------------------
// Outcome Types
// --------------------------------------------------------------------------

// OutcomeType classifies the result of a single attempt
type OutcomeType uint8

const (
	OutcomeTValue           OutcomeType = iota // The key was found, Value holds the decoded value.
	OutcomeTNotFound                           // The key does not exist.
	OutcomeTEmpty                              // A write was acknowledged (explicitly or by silence).
	OutcomeTRedirect                           // Another node is the leader, see Leader.
	OutcomeTBusy                               // The node asked the client to retry.
	OutcomeTMalformed                          // The node rejected the command or answered garbage.
	OutcomeTConnectionError                    // The connection failed before an answer arrived.
)

func (ot OutcomeType) String() string {
	switch ot {
	case OutcomeTValue:
		return "value"
	case OutcomeTNotFound:
		return "not found"
	case OutcomeTEmpty:
		return "empty"
	case OutcomeTRedirect:
		return "redirect"
	case OutcomeTBusy:
		return "busy"
	case OutcomeTMalformed:
		return "malformed"
	case OutcomeTConnectionError:
		return "connection error"
	default:
		return fmt.Sprintf("unknown(%d)", ot)
	}
}

// IsTerminal reports whether the outcome ends an operation successfully
func (ot OutcomeType) IsTerminal() bool {
	return ot == OutcomeTValue || ot == OutcomeTNotFound || ot == OutcomeTEmpty
}

// --------------------------------------------------------------------------
// Outcome
// --------------------------------------------------------------------------

// Outcome is the classified result of one request/response round trip
type Outcome struct {
	Type   OutcomeType
	Value  []byte // Used for: OutcomeTValue
	Leader int    // Used for: OutcomeTRedirect (-1 if the index could not be parsed)
	Raw    string // The trimmed answer line, for logging
}

func (o Outcome) String() string {
	switch o.Type {
	case OutcomeTValue:
		return fmt.Sprintf("value(%d bytes)", len(o.Value))
	case OutcomeTRedirect:
		return fmt.Sprintf("redirect(%d)", o.Leader)
	default:
		return o.Type.String()
	}
}

// Decode classifies an answer line. For writes any answer that is not one of the
// protocol keywords counts as an acknowledgement, for reads it is the encoded value.
func Decode(line string, write bool) Outcome {
	line = strings.TrimSpace(line)

	switch {
	case line == RespNotFound:
		return Outcome{Type: OutcomeTNotFound, Raw: line}
	case line == RespEmpty:
		return Outcome{Type: OutcomeTEmpty, Raw: line}
	case line == RespRetry:
		return Outcome{Type: OutcomeTBusy, Raw: line}
	case line == RespBadCommand:
		return Outcome{Type: OutcomeTMalformed, Raw: line}
	case strings.HasPrefix(line, redirectPrefix):
		leader, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, redirectPrefix)))
		if err != nil {
			leader = -1
		}
		return Outcome{Type: OutcomeTRedirect, Leader: leader, Raw: line}
	case write:
		return Outcome{Type: OutcomeTEmpty, Raw: line}
	}

	value, err := DecodeValue(line)
	if err != nil {
		return Outcome{Type: OutcomeTMalformed, Raw: line}
	}
	return Outcome{Type: OutcomeTValue, Value: value, Raw: line}
}
