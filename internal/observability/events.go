package observability

// Broker header keys understood by the platform's event consumers.
const (
	headerRequestID = "x-request-id"
	headerTraceID   = "trace_id"
)

// EventEnvelope is the broker-facing wrapper around a websocket lifecycle
// event. EventType names the stream (ws_events), EventName the specific
// transition.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders assembles the correlation headers for a published event,
// omitting the ones the connection never carried.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers[headerRequestID] = requestID
	}
	if traceID != "" {
		headers[headerTraceID] = traceID
	}
	return headers
}
