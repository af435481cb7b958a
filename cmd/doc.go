// Package cmd implements the command-line interface of kvbench. It provides a
// hierarchical command structure for running a local cluster, issuing single
// key-value operations and benchmarking a cluster.
//
// The package is organized into several subpackages:
//
//   - serve: Starts an in-process line protocol cluster backed by a local store
//   - kv: Commands for single key-value operations (put, get, del, has)
//   - bench: Runs YCSB style workloads through a registered binding (default linekv)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvbench -help for a list of all commands.
package cmd
