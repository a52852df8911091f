package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	routingKey string
	event      any
	headers    map[string]string
	err        error
}

func (s *captureSink) PublishWithHeaders(_ context.Context, routingKey string, event any, headers map[string]string) error {
	s.routingKey = routingKey
	s.event = event
	s.headers = headers
	return s.err
}

func TestPublishEvent(t *testing.T) {
	sink := &captureSink{}
	SetEventSink(sink)
	defer SetEventSink(nil)

	envelope := EventEnvelope{EventType: "ws_events", EventName: "ws_connect", Payload: "p"}
	headers := CorrelationHeaders("req-1", "trace-1")
	require.NoError(t, PublishEvent(context.Background(), "ws_events.chats", envelope, headers))

	assert.Equal(t, "ws_events.chats", sink.routingKey)
	assert.Equal(t, envelope, sink.event)
	assert.Equal(t, headers, sink.headers)
}

func TestPublishEventWithoutSink(t *testing.T) {
	SetEventSink(nil)
	assert.NoError(t, PublishEvent(context.Background(), "ws_events.chats", EventEnvelope{}, nil))
}

func TestPublishEventSinkFailure(t *testing.T) {
	sink := &captureSink{err: errors.New("broker down")}
	SetEventSink(sink)
	defer SetEventSink(nil)

	err := PublishEvent(context.Background(), "ws_events.chats", EventEnvelope{}, nil)
	assert.Error(t, err)
}

func TestCorrelationHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "trace_id": "trace-1"}, CorrelationHeaders("req-1", "trace-1"))
	assert.Equal(t, map[string]string{"trace_id": "trace-1"}, CorrelationHeaders("", "trace-1"))
	assert.Empty(t, CorrelationHeaders("", ""))
}
