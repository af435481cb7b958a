package ycsb

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
)

var Logger = logger.GetLogger("ycsb")

// --------------------------------------------------------------------------
// Status
// --------------------------------------------------------------------------

// Status is the result of a single DB operation as seen by the workload generator
type Status uint8

const (
	StatusOK             Status = iota // Operation succeeded
	StatusError                        // Operation failed, details are logged by the binding
	StatusNotFound                     // Key does not exist (not an error)
	StatusNotImplemented               // Operation is not supported by the binding
)

// Statuses lists all statuses in report order
var Statuses = []Status{StatusOK, StatusNotFound, StatusError, StatusNotImplemented}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	default:
		return "UNKNOWN"
	}
}

// IsOK reports whether the operation completed as intended. NotFound counts as completed.
func (s Status) IsOK() bool {
	return s == StatusOK || s == StatusNotFound
}

// --------------------------------------------------------------------------
// DB Interface
// --------------------------------------------------------------------------

// Record maps field names to field values
type Record map[string][]byte

// DB is the contract between the workload generator and a storage binding.
//
// One DB instance is used by exactly one worker. Errors never cross this interface: bindings
// log failures and report a Status.
type DB interface {
	// Init prepares the binding (e.g. parses its configuration). It is called once before any operation.
	Init() error
	// Cleanup releases all resources. It is called once after the last operation.
	Cleanup() error
	// Read reads a record. A nil fields slice means all fields.
	Read(table, key string, fields []string) (Record, Status)
	// Insert stores a new record.
	Insert(table, key string, values Record) Status
	// Update overwrites a record.
	Update(table, key string, values Record) Status
	// Delete removes a record.
	Delete(table, key string) Status
	// Scan reads count records starting at startKey.
	Scan(table, startKey string, count int, fields []string) ([]Record, Status)
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Factory creates a new, not yet initialized DB from the given properties
type Factory func(props Properties) (DB, error)

var registry = xsync.NewMapOf[string, Factory]()

// Register makes a binding available under the given name.
// It panics if the name is already taken or the factory is nil.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("ycsb: Register factory is nil for " + name)
	}
	if _, loaded := registry.LoadOrStore(name, factory); loaded {
		panic("ycsb: Register called twice for " + name)
	}
}

// Names returns the names of all registered bindings in sorted order
func Names() []string {
	var names []string
	registry.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Open creates and initializes a new instance of the named binding
func Open(name string, props Properties) (DB, error) {
	factory, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("unknown db %q (registered: %v)", name, Names())
	}

	db, err := factory(props)
	if err != nil {
		return nil, fmt.Errorf("failed to create db %q: %w", name, err)
	}

	if err := db.Init(); err != nil {
		return nil, fmt.Errorf("failed to init db %q: %w", name, err)
	}
	return db, nil
}
