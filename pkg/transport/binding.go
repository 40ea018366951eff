package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/tpp-host/pkg/commsutil"
	"github.com/morezero/tpp-host/pkg/dispatcher"
	"github.com/morezero/tpp-host/pkg/events"
	"github.com/morezero/tpp-host/pkg/semver"
)

const logPrefix = "transport:binding"

// DefaultRequestTimeout bounds a single invocation when BindParams leaves it unset.
const DefaultRequestTimeout = 25 * time.Second

// BindParams holds parameters for Bind.
type BindParams struct {
	Channel        string
	Subject        string
	Version        string
	Dispatcher     *dispatcher.Dispatcher
	RequestTimeout time.Duration
	Publisher      events.EventPublisher
}

// Binding is a dispatcher attached to a COMMS subject. The caller that
// created it owns it and must Close it.
type Binding struct {
	params BindParams
	sub    *comms.Subscription
}

// Bind subscribes the dispatcher to params.Subject and announces the channel
// as ready. COMMS delivers messages for one subscription serially, so
// invocations are handled one at a time.
func Bind(ctx context.Context, nc *comms.Conn, params BindParams) (*Binding, error) {
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("%s - dispatcher is required", logPrefix)
	}
	if params.Subject == "" {
		return nil, fmt.Errorf("%s - subject is required", logPrefix)
	}
	if err := semver.ValidateVersion(params.Version); err != nil {
		return nil, fmt.Errorf("%s - channel %s: %w", logPrefix, params.Channel, err)
	}
	if params.RequestTimeout <= 0 {
		params.RequestTimeout = DefaultRequestTimeout
	}
	if params.Publisher == nil {
		params.Publisher = &events.NoOpPublisher{}
	}

	b := &Binding{params: params}
	sub, err := nc.Subscribe(params.Subject, func(msg *comms.Msg) {
		b.respond(ctx, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, params.Subject, err)
	}
	b.sub = sub
	slog.Info(fmt.Sprintf("%s - Channel %s bound to %s", logPrefix, params.Channel, params.Subject))

	if err := params.Publisher.PublishChannel(ctx, b.event(events.StateReady)); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to announce channel %s: %v", logPrefix, params.Channel, err))
	}
	return b, nil
}

// Subject returns the subject the binding listens on.
func (b *Binding) Subject() string {
	return b.params.Subject
}

// Close unsubscribes and announces the channel as closed.
func (b *Binding) Close(ctx context.Context) error {
	if err := b.sub.Unsubscribe(); err != nil && !errors.Is(err, comms.ErrConnectionClosed) {
		return fmt.Errorf("%s - failed to unsubscribe from %s: %w", logPrefix, b.params.Subject, err)
	}
	if err := b.params.Publisher.PublishChannel(ctx, b.event(events.StateClosed)); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to announce channel %s closed: %v", logPrefix, b.params.Channel, err))
	}
	slog.Info(fmt.Sprintf("%s - Channel %s unbound from %s", logPrefix, b.params.Channel, b.params.Subject))
	return nil
}

func (b *Binding) event(state string) *events.ChannelEvent {
	return &events.ChannelEvent{
		Channel:   b.params.Channel,
		Subject:   b.params.Subject,
		Version:   b.params.Version,
		Methods:   b.params.Dispatcher.Names(),
		State:     state,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (b *Binding) respond(ctx context.Context, msg *comms.Msg) {
	resp := b.handle(ctx, msg.Data)

	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		data, _ = commsutil.EncodePayload(errorResponse(resp.ID, CodeInvalidResult, "Failed to encode result", false))
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}

// handle turns one raw request into exactly one response.
func (b *Binding) handle(ctx context.Context, data []byte) *ChannelResponse {
	var req ChannelRequest
	if err := commsutil.DecodePayload(data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		return errorResponse("", CodeInvalidRequest, "Failed to decode request", false)
	}
	if req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "Missing method", false)
	}

	if req.Ctx != nil && req.Ctx.Version != "" {
		ok, err := semver.Satisfies(b.params.Version, req.Ctx.Version)
		if err != nil {
			return errorResponse(req.ID, CodeInvalidRequest, err.Error(), false)
		}
		if !ok {
			return errorResponse(req.ID, CodeVersionMismatch,
				fmt.Sprintf("Channel %s version %s does not satisfy %s", b.params.Channel, b.params.Version, req.Ctx.Version), false)
		}
	}

	args, err := commsutil.DecodeArgs(req.Args)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidRequest, "Failed to decode args", false)
	}

	reqCtx, cancel := context.WithTimeout(ctx, b.requestTimeout(req.Ctx))
	defer cancel()

	out := b.params.Dispatcher.Dispatch(reqCtx, dispatcher.Invocation{Name: req.Method, Arguments: args})
	if out.Kind == dispatcher.KindSuccess {
		if err := dispatcher.ValidateValue(out.Value); err != nil {
			slog.Error(fmt.Sprintf("%s - method %s returned invalid result: %v", logPrefix, req.Method, err))
			return errorResponse(req.ID, CodeInvalidResult, err.Error(), false)
		}
	}
	return OutcomeResponse(req.ID, out)
}

// requestTimeout honours a caller deadline only when it is tighter than the configured one.
func (b *Binding) requestTimeout(ictx *InvocationContext) time.Duration {
	timeout := b.params.RequestTimeout
	if ictx == nil {
		return timeout
	}
	ms := ictx.DeadlineMs
	if ms <= 0 {
		ms = ictx.TimeoutMs
	}
	if ms > 0 && time.Duration(ms)*time.Millisecond < timeout {
		return time.Duration(ms) * time.Millisecond
	}
	return timeout
}
