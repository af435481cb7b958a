// Package tcp implements TCP socket based connectors for the line protocol.
//
// Key Components:
//
//   - clientConnector: TCP implementation of transport.IClientConnector. Dials with a
//     timeout and applies the socket options of common.TCPConf (no delay, keep-alive,
//     linger).
//
//   - serverConnector: TCP implementation of transport.IServerConnector used by the
//     dev cluster server.
package tcp
