package mqtt

import "strings"

// TopicPrefixSystem is the base for the hub's own lifecycle topics.
// Home device traffic lives under the configurable topic prefix instead,
// so the hub's announcements never collide with bridged devices.
const TopicPrefixSystem = "homehub/system"

// Topics builds topic strings for a configured home prefix.
//
//	topics := mqtt.NewTopics("home/")
//	topics.All() // "home/#"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder for the given home prefix. The prefix
// is normalised to end with a single slash; empty falls back to "home/".
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "home/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return Topics{prefix: prefix}
}

// Prefix returns the normalised home topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// All returns the wildcard pattern matching all home traffic.
//
// Pattern: {prefix}#
func (t Topics) All() string {
	return t.prefix + "#"
}

// Device returns the topic for a single device under the home prefix.
//
// Example: home/light/kitchen
func (t Topics) Device(parts ...string) string {
	return t.prefix + strings.Join(parts, "/")
}

// SystemStatus returns the hub's retained status topic.
//
// Example: homehub/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Matches reports whether a concrete topic falls under the home prefix.
func (t Topics) Matches(topic string) bool {
	return strings.HasPrefix(topic, t.prefix)
}
