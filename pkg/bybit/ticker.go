package bybit

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// tickerRow mirrors Ticker but lets missing prices be told apart from zero.
type tickerRow struct {
	Symbol    string              `json:"symbol"`
	LastPrice decimal.NullDecimal `json:"last_price"`
	HighPrice decimal.NullDecimal `json:"high_price"`
	LowPrice  decimal.NullDecimal `json:"low_price"`
}

// ParseTickerList decodes raw ticker rows into []Ticker.
// Rows that fail to decode, carry no symbol, or miss a price are skipped and counted.
func ParseTickerList(raw []json.RawMessage) (out []Ticker, skipped int) {
	for _, data := range raw {
		var row tickerRow
		if err := json.Unmarshal(data, &row); err != nil {
			skipped++
			continue
		}
		if row.Symbol == "" || !row.LastPrice.Valid || !row.HighPrice.Valid || !row.LowPrice.Valid {
			skipped++
			continue
		}
		out = append(out, Ticker{
			Symbol:    row.Symbol,
			LastPrice: row.LastPrice.Decimal,
			HighPrice: row.HighPrice.Decimal,
			LowPrice:  row.LowPrice.Decimal,
		})
	}
	return out, skipped
}
