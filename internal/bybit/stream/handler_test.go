package stream

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestHandler() (*Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewHandler(zap.New(core)), logs
}

// go test -v --run TestHandleUpdate
func TestHandleUpdate(t *testing.T) {
	h, logs := newTestHandler()

	err := h.Handle([]byte(`{"topic":"instrument_info.100ms.BTCUSDT","type":"delta","data":{"update":[{"last_price_e4":"700000000"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Received())

	entries := logs.FilterMessage("stream update").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "BTCUSDT", entries[0].ContextMap()["symbol"])
}

// go test -v --run TestHandleSubscriptionResponse
func TestHandleSubscriptionResponse(t *testing.T) {
	h, logs := newTestHandler()

	require.NoError(t, h.Handle([]byte(`{"success":true,"ret_msg":"","conn_id":"x","request":{"op":"subscribe","args":["instrument_info.100ms.ETHUSDT"]}}`)))
	require.NoError(t, h.Handle([]byte(`{"success":false,"ret_msg":"error:handler not found","request":{"op":"subscribe","args":["instrument_info.100ms.FOO"]}}`)))

	assert.Equal(t, int64(2), h.Received())
	assert.Equal(t, 1, logs.FilterMessage("subscription rejected").Len())
	assert.Equal(t, 0, logs.FilterMessage("stream update").Len())
}

// go test -v --run TestHandleInvalidJSON
func TestHandleInvalidJSON(t *testing.T) {
	h, _ := newTestHandler()

	err := h.Handle([]byte(`{"topic":`))
	require.Error(t, err)

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, int64(0), h.Received())
}

// go test -v --run TestHandleNonObjectJSON
func TestHandleNonObjectJSON(t *testing.T) {
	h, logs := newTestHandler()

	for _, frame := range []string{`[1]`, `[1,2]`, `"pong"`, `42`, `true`, `null`} {
		assert.NoError(t, h.Handle([]byte(frame)), frame)
	}

	assert.Equal(t, int64(6), h.Received())
	assert.Equal(t, 6, logs.FilterMessage("stream update").Len())
	assert.Equal(t, 0, logs.FilterMessage("subscription rejected").Len())
}

// go test -v --run TestExtractSymbolFromTopic
func TestExtractSymbolFromTopic(t *testing.T) {
	assert.Equal(t, "ADAUSDT", extractSymbolFromTopic("instrument_info.100ms.ADAUSDT"))
	assert.Equal(t, "", extractSymbolFromTopic("pong"))
}
