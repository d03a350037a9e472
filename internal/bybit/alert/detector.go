// Package alert decides which ticker snapshots deserve a notification.
package alert

import (
	"fmt"

	"bybitalert/pkg/bybit"
)

// Evaluate returns one event per tracked ticker whose last price is at or
// beyond its reported high or low. High wins when both hold. Untracked
// symbols are ignored and input order is preserved.
//
// Only the snapshot's own high/low are consulted; nothing is remembered
// between calls.
func Evaluate(tickers []bybit.Ticker, tracked bybit.SymbolSet) []Event {
	var events []Event
	for _, t := range tickers {
		if !tracked.Contains(t.Symbol) {
			continue
		}

		switch {
		case t.LastPrice.GreaterThanOrEqual(t.HighPrice):
			events = append(events, newEvent(t, KindHigh))
		case t.LastPrice.LessThanOrEqual(t.LowPrice):
			events = append(events, newEvent(t, KindLow))
		}
	}
	return events
}

func newEvent(t bybit.Ticker, kind Kind) Event {
	ev := Event{
		Symbol:    t.Symbol,
		Kind:      kind,
		LastPrice: t.LastPrice,
		HighPrice: t.HighPrice,
		LowPrice:  t.LowPrice,
	}

	last := t.LastPrice.String()
	if kind == KindHigh {
		ev.Subject = fmt.Sprintf("%s reached an all-time high!", t.Symbol)
		ev.Body = fmt.Sprintf("%s has reached a new all-time high of %s.", t.Symbol, last)
	} else {
		ev.Subject = fmt.Sprintf("%s hit an all-time low!", t.Symbol)
		ev.Body = fmt.Sprintf("%s has reached a new all-time low of %s.", t.Symbol, last)
	}
	return ev
}
