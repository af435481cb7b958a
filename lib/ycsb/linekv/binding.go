package linekv

import (
	"fmt"
	"github.com/ValentinKolb/kvbench/lib/ycsb"
	"github.com/ValentinKolb/kvbench/rpc/client"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
	"sort"
	"strings"
)

var Logger = ycsb.Logger

// Name is the name the binding is registered under
const Name = "linekv"

func init() {
	ycsb.Register(Name, New)
}

// Property names understood by New
const (
	PropHosts          = "linekv.hosts"
	PropTimeout        = "linekv.timeout"
	PropWriteTimeout   = "linekv.write_timeout"
	PropConnectTimeout = "linekv.connect_timeout"
	PropRetries        = "linekv.retries"
	PropRedirectLimit  = "linekv.redirect_limit"
	PropRetryBackoff   = "linekv.retry_backoff"
	PropRandomStart    = "linekv.random_start"
	PropTCPNoDelay     = "linekv.tcp_nodelay"
	PropValueField     = "linekv.value_field"
	PropTablePrefix    = "linekv.table_prefix"
)

const (
	DefaultHosts      = "127.0.0.1:2001,127.0.0.1:2211,127.0.0.1:2221"
	DefaultValueField = "field0"
)

// Config holds everything a Binding needs
type Config struct {
	Client common.ClientConfig
	// ValueField is the field name a read value is returned under
	ValueField string
	// TablePrefix stores keys as "<table>/<key>" instead of ignoring the table
	TablePrefix bool
}

// ConfigFromProperties reads the linekv.* properties. Timeouts are in milliseconds.
func ConfigFromProperties(props ycsb.Properties) (Config, error) {
	var err error
	config := Config{
		Client: common.ClientConfig{
			Endpoints: strings.Split(props.GetString(PropHosts, DefaultHosts), ","),
		},
		ValueField: props.GetString(PropValueField, DefaultValueField),
	}

	ints := []struct {
		key    string
		target *int
	}{
		{PropTimeout, &config.Client.TimeoutMillisecond},
		{PropWriteTimeout, &config.Client.WriteTimeoutMillisecond},
		{PropConnectTimeout, &config.Client.ConnectTimeoutMillisecond},
		{PropRetries, &config.Client.RetryCount},
		{PropRedirectLimit, &config.Client.RedirectLimit},
		{PropRetryBackoff, &config.Client.RetryBackoffMillisecond},
	}
	for _, i := range ints {
		if *i.target, err = props.GetInt(i.key, 0); err != nil {
			return Config{}, err
		}
	}

	if config.Client.RandomStart, err = props.GetBool(PropRandomStart, true); err != nil {
		return Config{}, err
	}
	if config.Client.TCPConf.TCPNoDelay, err = props.GetBool(PropTCPNoDelay, true); err != nil {
		return Config{}, err
	}
	if config.TablePrefix, err = props.GetBool(PropTablePrefix, false); err != nil {
		return Config{}, err
	}

	for i, host := range config.Client.Endpoints {
		config.Client.Endpoints[i] = strings.TrimSpace(host)
	}
	return config, nil
}

// --------------------------------------------------------------------------
// Binding
// --------------------------------------------------------------------------

// Binding adapts the resilient executor to the ycsb.DB contract.
// Each binding owns its own executor and endpoint cursor; use one binding per worker.
type Binding struct {
	config Config
	exec   *client.Executor
}

// New is the ycsb.Factory of the binding
func New(props ycsb.Properties) (ycsb.DB, error) {
	config, err := ConfigFromProperties(props)
	if err != nil {
		return nil, err
	}
	return NewBinding(config), nil
}

// NewBinding creates a binding. Nothing is connected before the first operation.
func NewBinding(config Config) *Binding {
	if config.ValueField == "" {
		config.ValueField = DefaultValueField
	}
	return &Binding{config: config}
}

var _ ycsb.DB = (*Binding)(nil)

// Init validates the configuration and creates the executor. The first connection is opened
// lazily by the first operation.
func (b *Binding) Init() error {
	exec, err := client.NewTCPExecutor(b.config.Client)
	if err != nil {
		return fmt.Errorf("linekv: %w", err)
	}
	b.exec = exec
	Logger.Debugf("linekv binding initialized with %s", exec.Endpoints())
	return nil
}

// Cleanup closes the session. It is safe to call Cleanup more than once.
func (b *Binding) Cleanup() error {
	if b.exec == nil {
		return nil
	}
	return b.exec.Close()
}

// Read returns the stored value as a single field record
func (b *Binding) Read(table, key string, _ []string) (ycsb.Record, ycsb.Status) {
	outcome, status := b.execute(protocol.Get(b.key(table, key)))
	if status != ycsb.StatusOK {
		return nil, status
	}

	switch outcome.Type {
	case protocol.OutcomeTNotFound:
		return nil, ycsb.StatusNotFound
	case protocol.OutcomeTEmpty:
		return ycsb.Record{b.config.ValueField: []byte{}}, ycsb.StatusOK
	default:
		return ycsb.Record{b.config.ValueField: outcome.Value}, ycsb.StatusOK
	}
}

// Insert stores the concatenation of all field values (sorted by field name) as one value
func (b *Binding) Insert(table, key string, values ycsb.Record) ycsb.Status {
	_, status := b.execute(protocol.Put(b.key(table, key), Concat(values)))
	return status
}

// Update behaves like Insert, the protocol has no partial updates
func (b *Binding) Update(table, key string, values ycsb.Record) ycsb.Status {
	return b.Insert(table, key, values)
}

func (b *Binding) Delete(table, key string) ycsb.Status {
	_, status := b.execute(protocol.Delete(b.key(table, key)))
	return status
}

// Scan is not supported by the protocol
func (b *Binding) Scan(string, string, int, []string) ([]ycsb.Record, ycsb.Status) {
	return nil, ycsb.StatusNotImplemented
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// execute runs the command and maps failures to StatusError
func (b *Binding) execute(cmd protocol.Command) (protocol.Outcome, ycsb.Status) {
	if b.exec == nil {
		Logger.Errorf("linekv: %s called before Init", cmd.Type)
		return protocol.Outcome{}, ycsb.StatusError
	}

	outcome, err := b.exec.Execute(cmd)
	if err != nil {
		Logger.Warningf("linekv: %s failed: %v", cmd, err)
		return outcome, ycsb.StatusError
	}
	return outcome, ycsb.StatusOK
}

func (b *Binding) key(table, key string) string {
	if b.config.TablePrefix && table != "" {
		return table + "/" + key
	}
	return key
}

// Concat joins the field values in sorted field name order without separator
func Concat(values ycsb.Record) []byte {
	names := make([]string, 0, len(values))
	size := 0
	for name, value := range values {
		names = append(names, name)
		size += len(value)
	}
	sort.Strings(names)

	buf := make([]byte, 0, size)
	for _, name := range names {
		buf = append(buf, values[name]...)
	}
	return buf
}
