package quote

import "github.com/shopspring/decimal"

// latestResponse is the provider payload for the latest-price endpoint.
// Prices decode from both JSON numbers and strings.
type latestResponse struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // milliseconds since epoch
}

// closeResponse is the provider payload for the daily-close endpoint.
type closeResponse struct {
	Symbol string          `json:"symbol"`
	Date   string          `json:"date"` // "2006-01-02"
	Close  decimal.Decimal `json:"close"`
}
