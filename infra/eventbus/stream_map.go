package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/bankledger/pkg/domain/events"
)

// Redis stream and group names, e.g. "ledger:events:transfer:posted".
func streamNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "events", eventType)
}

func dlqStreamName(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "dlq", eventType)
}

func groupNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "group", eventType)
}

func nameFor(prefix, kind string, eventType events.EventType) string {
	parts := strings.Split(strings.ToLower(eventType.String()), ".")
	return fmt.Sprintf("%s%s:%s", prefix, kind, strings.Join(parts, ":"))
}

// Kafka topic names, e.g. "bankledger.events.transfer.posted".
func topicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType.String()))
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType.String()))
}
