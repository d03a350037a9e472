package bybit

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TickersResponse is the envelope returned by the v2 public tickers endpoint.
type TickersResponse struct {
	RetCode int               `json:"ret_code"` // 0 means success
	RetMsg  string            `json:"ret_msg"`
	Result  []json.RawMessage `json:"result"` // Delay decoding so one bad row does not sink the batch
	TimeNow string            `json:"time_now"`
}

// Ticker is one symbol's price snapshot. Prices accept JSON strings or numbers.
type Ticker struct {
	Symbol    string          `json:"symbol"`     // e.g., "BTCUSDT"
	LastPrice decimal.Decimal `json:"last_price"` // last traded price
	HighPrice decimal.Decimal `json:"high_price"` // reported session (24h) high
	LowPrice  decimal.Decimal `json:"low_price"`  // reported session (24h) low
}

// SubscribeRequest is the outbound stream subscription message.
type SubscribeRequest struct {
	Op   string   `json:"op"`   // "subscribe"
	Args []string `json:"args"` // e.g., ["instrument_info.100ms.BTCUSDT"]
}

type pingRequest struct {
	Op string `json:"op"`
}
