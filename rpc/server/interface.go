package server

import (
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
)

// IServerAdapter is the interface for all server adapters
// It is responsible for executing a command on the leader and producing its answer line
type IServerAdapter interface {
	// Handle executes a parsed command against the store.
	// It returns the answer line (without newline) and whether an answer is sent at all.
	Handle(cmd protocol.Command, store store.IStore) (answer string, reply bool)
}
