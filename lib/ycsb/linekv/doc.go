// Package linekv is the ycsb.DB binding for clusters speaking the line protocol.
//
// Every binding owns one client.Executor, so the endpoint cursor and the session are per
// worker. Failures of the executor are logged and reported as ycsb.StatusError, a missing key
// as ycsb.StatusNotFound. Scan is not implemented.
//
// Records are flattened: Insert and Update store the concatenation of all field values in
// sorted field name order, Read returns the stored value under a single field ("field0" by
// default).
//
// Properties (timeouts in milliseconds):
//
//	linekv.hosts            comma separated member list (default 127.0.0.1:2001,127.0.0.1:2211,127.0.0.1:2221)
//	linekv.timeout          read timeout (default 5000)
//	linekv.write_timeout    write answer timeout, silence counts as success (default 500)
//	linekv.connect_timeout  dial timeout (default: read timeout)
//	linekv.retries          retry budget per operation (default 3)
//	linekv.redirect_limit   redirects followed per operation (default: number of hosts)
//	linekv.retry_backoff    initial backoff between retries (default 0)
//	linekv.random_start     start at a random member (default true)
//	linekv.tcp_nodelay      disable Nagle's algorithm (default true)
//	linekv.value_field      field name of read values (default field0)
//	linekv.table_prefix     store keys as <table>/<key> (default false)
//
// The binding registers itself as "linekv" when the package is imported:
//
//	import _ "github.com/ValentinKolb/kvbench/lib/ycsb/linekv"
//
//	db, err := ycsb.Open("linekv", ycsb.Properties{"linekv.hosts": "10.0.0.1:7000,10.0.0.2:7000"})
package linekv
