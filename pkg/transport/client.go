package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/tpp-host/pkg/commsutil"
	"github.com/morezero/tpp-host/pkg/dispatcher"
)

const clientLogPrefix = "transport:client"

// DefaultClientTimeout applies when Invoke is given a context without a deadline.
const DefaultClientTimeout = 10 * time.Second

// Invoke sends req to subject and waits for the channel's response.
// An empty request ID is filled with a random UUID.
func Invoke(ctx context.Context, nc *comms.Conn, subject string, req *ChannelRequest) (*ChannelResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultClientTimeout)
		defer cancel()
	}

	data, err := commsutil.EncodePayload(req)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode request: %w", clientLogPrefix, err)
	}

	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("%s - request to %s failed: %w", clientLogPrefix, subject, err)
	}

	var resp ChannelResponse
	if err := commsutil.DecodePayload(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("%s - failed to decode response: %w", clientLogPrefix, err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("%s - response id %q does not match request id %q", clientLogPrefix, resp.ID, req.ID)
	}
	return &resp, nil
}

// Call invokes method with args and converts the reply into an outcome.
func Call(ctx context.Context, nc *comms.Conn, subject, method string, args dispatcher.Value, ictx *InvocationContext) (dispatcher.Outcome, error) {
	req := &ChannelRequest{Method: method, Ctx: ictx}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return dispatcher.Outcome{}, fmt.Errorf("%s - failed to encode args: %w", clientLogPrefix, err)
		}
		req.Args = raw
	}

	resp, err := Invoke(ctx, nc, subject, req)
	if err != nil {
		return dispatcher.Outcome{}, err
	}
	return ResponseOutcome(resp), nil
}
