// Package common provides the configuration structures and the logging setup shared
// by the client, the transport and the dev cluster server.
//
// Key Components:
//
//   - ClientConfig: Parameters of the resilient line protocol client (endpoints,
//     read/write/connect timeouts, retry budget, redirect limit, socket options).
//     WithDefaults fills unset values, String pretty prints the configuration.
//
//   - ServerConfig: Parameters of the in-process line protocol cluster used for
//     local benchmarking and tests.
//
//   - Logger: Custom logging implementation that plugs into dragonboat's logger
//     package so every package logger shares one format and level.
package common
