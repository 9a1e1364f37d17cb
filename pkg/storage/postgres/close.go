package postgres

import (
	"context"

	"gorm.io/gorm/clause"
)

// InsertDailyClose archives one close. A (symbol, date) pair already present
// is skipped silently; the columnar files remain the source of truth and may
// replay rows on restart.
func (p *Client) InsertDailyClose(ctx context.Context, symbol, date, close string) error {
	record := &DailyCloseRecord{Symbol: symbol, Date: date, Close: close}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "date"},
		},
		DoNothing: true,
	}).Create(record)

	return tx.Error
}

// GetDailyClose fetches one archived close.
func (p *Client) GetDailyClose(ctx context.Context, symbol, date string) (*DailyCloseRecord, error) {
	var record DailyCloseRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND date = ?", symbol, date).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListDailyCloses returns every archived close for a symbol in date order.
func (p *Client) ListDailyCloses(ctx context.Context, symbol string) ([]DailyCloseRecord, error) {
	var records []DailyCloseRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
