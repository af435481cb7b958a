// Package protocol implements the codec of the newline delimited text protocol spoken
// by the replicated store.
//
// Requests (client to server):
//
//	get <key>
//	put <key> <percent-encoded-value>
//	del <key>
//
// Answers (server to client):
//
//	key not found          -> OutcomeTNotFound
//	<empty line>           -> OutcomeTEmpty (write acknowledged)
//	retry                  -> OutcomeTBusy
//	leader is <node index> -> OutcomeTRedirect
//	bad command            -> OutcomeTMalformed
//	<percent-encoded value> -> OutcomeTValue (reads only)
//
// Values are percent-encoded so that they never contain spaces or newlines that
// would break the framing. Keys are sent verbatim and therefore must not contain
// whitespace (see ValidateKey).
//
// Note that successful writes do not have to be acknowledged at all, so the absence
// of an answer is handled by the client (see the client package), not by the codec.
package protocol
