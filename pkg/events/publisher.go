package events

import "context"

// EventPublisher is the interface for publishing channel lifecycle events.
type EventPublisher interface {
	PublishChannel(ctx context.Context, event *ChannelEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishChannel is a no-op.
func (p *NoOpPublisher) PublishChannel(_ context.Context, _ *ChannelEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ChannelEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ChannelEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishChannel calls the callback.
func (p *CallbackPublisher) PublishChannel(ctx context.Context, event *ChannelEvent) error {
	return p.callback(ctx, event)
}
