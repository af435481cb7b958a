// Package transport defines the connector interfaces that separate the line protocol
// from the network medium.
//
// Subpackages:
//
//   - tcp: TCP implementation of IClientConnector and IServerConnector, including
//     the socket options of common.TCPConf.
//
//   - line: The client Session, owning one connection to one endpoint at a time and
//     reading/writing newline terminated lines with independent timeouts.
package transport
