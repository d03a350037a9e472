package postgres

import (
	"context"

	"bybitalert/internal/bybit/alert"
)

// RecordAlert stores a dispatched event together with its delivery outcome.
func (p *PostgresClient) RecordAlert(ctx context.Context, ev alert.Event, delivered bool) error {
	return p.DB.WithContext(ctx).Create(ToAlertRecord(ev, delivered)).Error
}

// ToAlertRecord converts an event into a row. Prices keep their exact decimal text.
func ToAlertRecord(ev alert.Event, delivered bool) *AlertRecord {
	return &AlertRecord{
		Symbol:    ev.Symbol,
		Kind:      string(ev.Kind),
		LastPrice: ev.LastPrice.String(),
		HighPrice: ev.HighPrice.String(),
		LowPrice:  ev.LowPrice.String(),
		Subject:   ev.Subject,
		Delivered: delivered,
	}
}
