package stream

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handler decodes stream frames and logs them. Decoded updates are not
// processed further.
type Handler struct {
	logger   *zap.Logger
	received atomic.Int64
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle decodes one frame. Any valid JSON value is accepted; only an
// undecodable frame is returned as an error so the subscriber drops the
// connection and starts over.
func (h *Handler) Handle(msg []byte) error {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return fmt.Errorf("decode stream message: %w", err)
	}
	h.received.Add(1)

	obj, ok := v.(map[string]any)
	if !ok {
		h.logger.Debug("stream update", zap.Any("message", v))
		return nil
	}
	m := Message(obj)

	if m.IsSubscriptionResponse() {
		if !m.Succeeded() {
			h.logger.Warn("subscription rejected", zap.Any("response", obj))
		}
		return nil
	}

	topic := m.Topic()
	h.logger.Debug("stream update",
		zap.String("topic", topic),
		zap.String("symbol", extractSymbolFromTopic(topic)),
		zap.Any("message", obj),
	)
	return nil
}

// Received returns the number of frames decoded so far.
func (h *Handler) Received() int64 {
	return h.received.Load()
}

// extractSymbolFromTopic parses the symbol from a topic like "instrument_info.100ms.BTCUSDT".
func extractSymbolFromTopic(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) == 3 {
		return parts[2]
	}
	return ""
}
