package postgres

import "time"

// AlertRecord is one dispatched price alert. The table is write-only: the
// alerter never reads it back.
type AlertRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol string `gorm:"type:text;not null;index:idx_alert_symbol_recorded"`
	Kind   string `gorm:"type:varchar(8);not null"` // "high" or "low"

	LastPrice string `gorm:"type:numeric;not null"`
	HighPrice string `gorm:"type:numeric;not null"`
	LowPrice  string `gorm:"type:numeric;not null"`

	Subject   string `gorm:"type:text;not null"`
	Delivered bool   `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime;index:idx_alert_symbol_recorded"`
}

// TableName overrides the default table name for GORM.
func (AlertRecord) TableName() string {
	return "price_alert"
}
