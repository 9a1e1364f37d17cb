package postgres

import "time"

// DailyCloseRecord mirrors one daily close row from the columnar market
// files into Postgres for ad-hoc querying. The unique index enforces the
// same at-most-one-per-(symbol, date) rule the files carry.
type DailyCloseRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol string `gorm:"type:text;not null;index:idx_symbol_date,unique"`
	Date   string `gorm:"type:varchar(10);not null;index:idx_symbol_date,unique"` // "2006-01-02"

	Close string `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (DailyCloseRecord) TableName() string {
	return "daily_close"
}
