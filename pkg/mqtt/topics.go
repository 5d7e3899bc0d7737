package mqtt

import "strings"

// Topic conventions. Format: orrery/{component}/{resource}.
const (
	// TopicPrefix is the root prefix for all bridge topics.
	TopicPrefix = "orrery"

	// eventComponent carries re-published bus lifecycle events.
	eventComponent = "event"
	// cameraComponent carries messages from the external camera controller.
	cameraComponent = "camera"
)

// EventTopic returns the topic lifecycle events of one type are published
// to.
func EventTopic(eventType string) string {
	return strings.Join([]string{TopicPrefix, eventComponent, eventType}, "/")
}

// CameraCompletedTopic is where the external camera controller reports
// finished animations.
func CameraCompletedTopic() string {
	return strings.Join([]string{TopicPrefix, cameraComponent, "completed"}, "/")
}

// ValidTopic checks whether a topic follows the bridge conventions.
func ValidTopic(topic string) bool {
	parts := strings.Split(topic, "/")
	return len(parts) >= 3 && parts[0] == TopicPrefix
}
