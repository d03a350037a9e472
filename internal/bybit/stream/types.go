package stream

// Message is a stream frame that decoded to a JSON object. No further schema is enforced.
type Message map[string]any

// Topic returns the frame's topic, e.g. "instrument_info.100ms.BTCUSDT", or "".
func (m Message) Topic() string {
	topic, _ := m["topic"].(string)
	return topic
}

// IsSubscriptionResponse reports whether the frame acknowledges a subscribe request.
func (m Message) IsSubscriptionResponse() bool {
	_, hasRequest := m["request"]
	_, hasSuccess := m["success"]
	return hasRequest && hasSuccess
}

// Succeeded reports the "success" flag of a subscription response.
func (m Message) Succeeded() bool {
	ok, _ := m["success"].(bool)
	return ok
}
