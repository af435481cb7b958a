package server

import (
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/rpc/protocol"
)

// NewIStoreServerAdapter returns the adapter used by the leader. With silentWrites the
// leader does not answer successful writes.
func NewIStoreServerAdapter(silentWrites bool) IServerAdapter {
	return &iStoreServerAdapterImpl{silentWrites: silentWrites}
}

type iStoreServerAdapterImpl struct {
	silentWrites bool
}

func (adapter *iStoreServerAdapterImpl) Handle(cmd protocol.Command, store store.IStore) (string, bool) {
	// Check for nil store
	if store == nil {
		Logger.Errorf("handler: store is nil")
		return protocol.RespRetry, true
	}

	// Handle different command types
	switch cmd.Type {
	case protocol.CommandTPut:
		if err := store.Set(cmd.Key, cmd.Value); err != nil {
			Logger.Warningf("Set(%s) failed: %v", cmd.Key, err)
			return errorAnswer(err)
		}
		return adapter.ack()
	case protocol.CommandTDelete:
		if err := store.Delete(cmd.Key); err != nil {
			Logger.Warningf("Delete(%s) failed: %v", cmd.Key, err)
			return errorAnswer(err)
		}
		return adapter.ack()
	case protocol.CommandTGet:
		val, ok, err := store.Get(cmd.Key)
		if err != nil {
			Logger.Warningf("Get(%s) failed: %v", cmd.Key, err)
			return errorAnswer(err)
		}
		if !ok {
			return protocol.RespNotFound, true
		}
		return protocol.EncodeValue(val), true
	default:
		return protocol.RespBadCommand, true
	}
}

func (adapter *iStoreServerAdapterImpl) ack() (string, bool) {
	if adapter.silentWrites {
		return "", false
	}
	return protocol.RespEmpty, true
}

// errorAnswer rejects invalid operations and asks the client to retry on any other store error
func errorAnswer(err error) (string, bool) {
	if store.CodeOf(err) == store.RetCInvalidOperation {
		return protocol.RespBadCommand, true
	}
	return protocol.RespRetry, true
}
