// Package events defines channel lifecycle events and publishers for them.
package events

// Channel lifecycle states.
const (
	StateReady  = "ready"
	StateClosed = "closed"
)

// ChannelEvent is emitted when a channel starts or stops accepting invocations.
type ChannelEvent struct {
	Channel   string   `json:"channel"`
	Subject   string   `json:"subject"`
	Version   string   `json:"version"`
	Methods   []string `json:"methods"`
	State     string   `json:"state"`
	Timestamp string   `json:"timestamp"`
}
