package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	DefaultSubjectPrefix = "channel"
	SubjectChannelEvents = "channel.events"
)

// BuildChannelSubject builds the request subject a channel listens on.
func BuildChannelSubject(prefix, channel string, major int) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.%s.v%d", prefix, safeToken(channel), major)
}

// BuildChannelEventSubject builds the granular lifecycle event subject for a channel.
func BuildChannelEventSubject(channel string) string {
	return SubjectChannelEvents + "." + safeToken(channel)
}

// safeToken keeps a name to a single subject token.
func safeToken(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
