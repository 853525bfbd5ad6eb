package mockhsm

import (
	"context"

	"github.com/google/uuid"
	"github.com/riftlabs/yubihsm-go/connector"
)

// Connector adapts a State to the connector.Connector interface, letting
// session.Session drive the simulator exactly as it would a real device
// over the network (spec component C7's in-process connector).
type Connector struct {
	state *State
}

// NewConnector wraps state as a Connector.
func NewConnector(state *State) *Connector {
	return &Connector{state: state}
}

// Send hands the already-framed command bytes straight to the
// simulator's dispatch loop and returns its response frame. txID has no
// in-process transport to tag, so it is accepted and ignored.
func (c *Connector) Send(ctx context.Context, txID uuid.UUID, frame []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &connector.Error{Kind: connector.ErrorKindIO, Err: err}
	}
	return c.state.HandleFrame(frame), nil
}

// Status always reports healthy: the simulator has no network dependency
// that could make it otherwise.
func (c *Connector) Status(ctx context.Context) (*connector.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, &connector.Error{Kind: connector.ErrorKindIO, Err: err}
	}
	return &connector.Status{OK: true, Serial: "mockhsm", Version: "2.0.0", Address: "in-process"}, nil
}
