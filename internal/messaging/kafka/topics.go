package kafka

import (
	"strings"

	"go-payroll/internal/events"
)

var channelTopics = map[string]string{
	events.PayrollChannel: events.PayrollGeneratedTopic,
}

// TopicFor maps an event channel to its Kafka topic. Channels without a
// registered topic are rewritten into a legal topic name.
func TopicFor(channel string) string {
	if topic, ok := channelTopics[channel]; ok {
		return topic
	}
	return strings.NewReplacer(":", ".", "/", ".").Replace(channel)
}
