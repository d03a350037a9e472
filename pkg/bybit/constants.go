package bybit

import (
	"fmt"
	"time"
)

const (
	// APIRateLimit is the maximum number of REST requests per minute.
	APIRateLimit = 75

	// RequestInterval is the minimum spacing between two REST requests.
	RequestInterval = time.Minute / APIRateLimit

	// CyclePeriod is the wall-clock length of one detection cycle.
	CyclePeriod = 5 * time.Minute

	// ReconnectDelay is the pause after a lost stream before reconnecting.
	ReconnectDelay = 5 * time.Second
)

// trackedSymbols is the fixed set of pairs watched for the whole process lifetime.
var trackedSymbols = [...]string{"BTCUSDT", "ETHUSDT", "XRPUSDT", "BNBUSDT", "ADAUSDT"}

// TrackedSymbols returns the compiled-in symbol set.
func TrackedSymbols() SymbolSet {
	return NewSymbolSet(trackedSymbols[:]...)
}

// InstrumentInfoTopic returns the 100ms instrument info channel for a symbol,
// e.g. "instrument_info.100ms.BTCUSDT".
func InstrumentInfoTopic(symbol string) string {
	return fmt.Sprintf("instrument_info.100ms.%s", symbol)
}

// SymbolSet is an immutable, ordered set of symbols.
type SymbolSet struct {
	ordered []string
	index   map[string]struct{}
}

// NewSymbolSet builds a set preserving first-seen order and dropping duplicates.
func NewSymbolSet(symbols ...string) SymbolSet {
	s := SymbolSet{
		ordered: make([]string, 0, len(symbols)),
		index:   make(map[string]struct{}, len(symbols)),
	}
	for _, sym := range symbols {
		if _, ok := s.index[sym]; ok {
			continue
		}
		s.index[sym] = struct{}{}
		s.ordered = append(s.ordered, sym)
	}
	return s
}

func (s SymbolSet) Contains(symbol string) bool {
	_, ok := s.index[symbol]
	return ok
}

func (s SymbolSet) Len() int {
	return len(s.ordered)
}

// Symbols returns a copy of the symbols in insertion order.
func (s SymbolSet) Symbols() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Topics returns the instrument info topic for every symbol, in order.
func (s SymbolSet) Topics() []string {
	out := make([]string, 0, len(s.ordered))
	for _, sym := range s.ordered {
		out = append(out, InstrumentInfoTopic(sym))
	}
	return out
}
