package observability

import "context"

// EventSink is where websocket lifecycle events go. The AMQP-backed
// implementation lives in internal/rabbitmq; with no sink installed events
// are dropped.
type EventSink interface {
	PublishWithHeaders(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// EventEnvelope frames an event published onto the whisper events exchange.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

var eventSink EventSink

// SetEventSink installs the process-wide sink.
func SetEventSink(sink EventSink) {
	eventSink = sink
}

// PublishEvent hands the envelope to the sink and counts publish failures.
func PublishEvent(ctx context.Context, routingKey string, event EventEnvelope, headers map[string]string) error {
	if eventSink == nil {
		return nil
	}

	err := eventSink.PublishWithHeaders(ctx, routingKey, event, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

// CorrelationHeaders carries request and trace ids onto published events.
func CorrelationHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
