package protocol

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ErrInvalidKey is returned when a key can not be framed on a single protocol line
var ErrInvalidKey = errors.New("invalid key")

// ErrBadCommand is returned by ParseCommand for lines that are not a valid command
var ErrBadCommand = errors.New("bad command")

// --------------------------------------------------------------------------
// Command Types
// --------------------------------------------------------------------------

// CommandType defines the verbs of the line protocol
type CommandType uint8

const (
	CommandTGet    CommandType = iota // Read the value of a key.
	CommandTPut                       // Insert or overwrite the value of a key.
	CommandTDelete                    // Remove a key.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTGet:
		return "get"
	case CommandTPut:
		return "put"
	case CommandTDelete:
		return "del"
	default:
		return fmt.Sprintf("unknown(%d)", ct)
	}
}

// IsWrite reports whether the command mutates the store. Writes are not guaranteed an answer.
func (ct CommandType) IsWrite() bool {
	return ct == CommandTPut || ct == CommandTDelete
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// Command is a single request of the line protocol
type Command struct {
	Type  CommandType
	Key   string
	Value []byte // Used for: Put
}

// Get creates a get command
func Get(key string) Command {
	return Command{Type: CommandTGet, Key: key}
}

// Put creates a put command
func Put(key string, value []byte) Command {
	return Command{Type: CommandTPut, Key: key, Value: value}
}

// Delete creates a del command
func Delete(key string) Command {
	return Command{Type: CommandTDelete, Key: key}
}

// String returns the command in wire format, or a description if it can not be encoded
func (c Command) String() string {
	line, err := Encode(c)
	if err != nil {
		return fmt.Sprintf("%s %q (invalid)", c.Type, c.Key)
	}
	return line
}

// ValidateKey checks that a key is non-empty and contains no whitespace,
// since the protocol separates arguments by spaces and commands by newlines.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: key %q contains whitespace", ErrInvalidKey, key)
	}
	return nil
}

// Encode converts a command into its wire line (without the trailing newline):
//
//	get <key>
//	put <key> <percent-encoded value>
//	del <key>
func Encode(c Command) (string, error) {
	if err := ValidateKey(c.Key); err != nil {
		return "", err
	}
	switch c.Type {
	case CommandTGet:
		return "get " + c.Key, nil
	case CommandTPut:
		return "put " + c.Key + " " + EncodeValue(c.Value), nil
	case CommandTDelete:
		return "del " + c.Key, nil
	default:
		return "", fmt.Errorf("unknown command type %d", c.Type)
	}
}

// ParseCommand is the inverse of Encode and is used by servers speaking the protocol.
// The returned put value is already decoded.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("%w: %q", ErrBadCommand, line)
	}

	switch fields[0] {
	case "get":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: get takes one argument", ErrBadCommand)
		}
		return Get(fields[1]), nil
	case "del":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: del takes one argument", ErrBadCommand)
		}
		return Delete(fields[1]), nil
	case "put":
		var encoded string
		switch len(fields) {
		case 2:
			encoded = "" // an empty value encodes to nothing
		case 3:
			encoded = fields[2]
		default:
			return Command{}, fmt.Errorf("%w: put takes two arguments", ErrBadCommand)
		}
		value, err := DecodeValue(encoded)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		return Put(fields[1], value), nil
	default:
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrBadCommand, fields[0])
	}
}

// --------------------------------------------------------------------------
// Value encoding
// --------------------------------------------------------------------------

// EncodeValue percent-encodes a value (form encoding, a space becomes '+')
// so that it never contains whitespace or newlines.
func EncodeValue(value []byte) string {
	return url.QueryEscape(string(value))
}

// DecodeValue reverses EncodeValue
func DecodeValue(encoded string) ([]byte, error) {
	s, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
