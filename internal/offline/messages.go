package offline

import (
	"context"
	"errors"
	"fmt"
)

const (
	MessageSkipWaiting = "SKIP_WAITING"
	MessageGetVersion  = "GET_VERSION"
	MessageCleanCache  = "CLEAN_CACHE"
)

var ErrUnknownMessage = errors.New("unknown message type")

type Message struct {
	Type string `json:"type"`
}

type Reply struct {
	Version string   `json:"version,omitempty"`
	State   string   `json:"state,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// HandleMessage answers a control message. GET_VERSION replies with the
// static partition name, which identifies the running version.
func (r *Router) HandleMessage(ctx context.Context, msg Message) (Reply, error) {
	switch msg.Type {
	case MessageSkipWaiting:
		if err := r.SkipWaiting(ctx); err != nil {
			return Reply{}, err
		}
		return Reply{State: r.State().String()}, nil
	case MessageGetVersion:
		return Reply{Version: r.partitions.Static}, nil
	case MessageCleanCache:
		deleted, err := r.Cleanup(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Deleted: deleted}, nil
	default:
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}
