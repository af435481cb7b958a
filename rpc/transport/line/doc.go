// Package line implements the client side transport session of the line protocol.
//
// A Session owns exactly one connection to one cluster member. It writes commands as
// newline terminated lines and reads answers line by line through a buffered reader.
//
// Reads and writes use different timeout disciplines. Reads block up to the configured
// client timeout. Writes are followed by a short, temporary timeout (WithTemporaryTimeout),
// because the server may answer a successful write with nothing at all. To support this,
// ReadLine distinguishes a clean timeout (ErrTimeout, nothing received, session still
// usable) from a timeout in the middle of an answer (session invalidated).
package line
