package alert

import "github.com/shopspring/decimal"

// Kind tells which side of the reported range the last price reached.
type Kind string

const (
	KindHigh Kind = "high"
	KindLow  Kind = "low"
)

// Event is a notification ready to be emailed.
type Event struct {
	Subject string
	Body    string

	Symbol    string
	Kind      Kind
	LastPrice decimal.Decimal
	HighPrice decimal.Decimal
	LowPrice  decimal.Decimal
}
