package columnar

// TransactionRecord is one ledger row as stored on disk. Amounts and prices
// are decimal text so no precision is lost across a round trip.
type TransactionRecord struct {
	ActivityID uint64 `parquet:"activity_id"`
	User       string `parquet:"user"`
	Symbol     string `parquet:"symbol"`
	Amount     string `parquet:"amount"`    // signed decimal, positive = buy
	Price      string `parquet:"price"`     // positive decimal
	Timestamp  int64  `parquet:"timestamp"` // milliseconds since epoch
}

// DailyCloseRecord is one closing price row in a symbol's market file.
// At most one row exists per (symbol, date).
type DailyCloseRecord struct {
	Symbol string `parquet:"symbol"`
	Date   string `parquet:"date"`  // calendar date, "2006-01-02"
	Close  string `parquet:"close"` // positive decimal
}
