// Package market keeps current prices in memory and daily closes on disk,
// refreshed from an external quote source on a fixed interval.
package market

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stocktracker/pkg/storage/columnar"
)

const closesFileName = "closes.parquet"

// State tracks where the refresher is within a tick.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateUpdating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateUpdating:
		return "updating"
	default:
		return "unknown"
	}
}

// QuoteSource is the external provider capability the refresher consumes.
// Both calls are bounded by the context deadline.
type QuoteSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	ClosePrice(ctx context.Context, symbol, date string) (decimal.Decimal, error)
}

// SymbolSource yields the symbol set to refresh, recomputed each tick.
// The ledger satisfies it.
type SymbolSource interface {
	AllSymbols() []string
}

// CloseArchiver mirrors appended daily closes to a secondary store.
type CloseArchiver interface {
	InsertDailyClose(ctx context.Context, symbol, date, close string) error
}

// Refresher is the single background task polling the quote source. It is
// the sole writer to the price cache and the per-symbol market files.
type Refresher struct {
	symbols  SymbolSource
	quotes   QuoteSource
	cache    *Cache
	archive  CloseArchiver // optional
	dataDir  string
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	state atomic.Int32
	now   func() time.Time
}

// NewRefresher wires a refresher. archive may be nil. interval defaults to
// two minutes, timeout to ten seconds.
func NewRefresher(symbols SymbolSource, quotes QuoteSource, cache *Cache,
	archive CloseArchiver, dataDir string, interval, timeout time.Duration,
	logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Refresher{
		symbols:  symbols,
		quotes:   quotes,
		cache:    cache,
		archive:  archive,
		dataDir:  dataDir,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// State reports the refresher's current position in its tick cycle.
func (r *Refresher) State() State {
	return State(r.state.Load())
}

// Run ticks immediately, then on every interval until ctx is cancelled.
// Cancellation is cooperative: an in-flight tick finishes its file writes
// before Run returns.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh executes one tick: fetch quotes for every held symbol, then update
// the price cache and append any missing daily closes. A failure for one
// symbol never aborts the others; the next tick retries.
func (r *Refresher) Refresh(ctx context.Context) {
	defer r.state.Store(int32(StateIdle))
	r.state.Store(int32(StateFetching))

	symbols := r.symbols.AllSymbols()
	closeDate := r.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	quotes := make(map[string]PriceQuote, len(symbols))
	closes := make(map[string]columnar.DailyCloseRecord)

	for _, symbol := range symbols {
		if price, err := r.fetchLatest(ctx, symbol); err != nil {
			r.logger.Warn("failed to fetch latest price",
				zap.String("symbol", symbol), zap.Error(err))
		} else {
			quotes[symbol] = PriceQuote{Symbol: symbol, Price: price, ObservedAt: r.now().UTC()}
		}

		rec, ok, err := r.fetchMissingClose(ctx, symbol, closeDate)
		if err != nil {
			r.logger.Warn("failed to fetch daily close",
				zap.String("symbol", symbol), zap.String("date", closeDate), zap.Error(err))
			continue
		}
		if ok {
			closes[symbol] = rec
		}
	}

	r.state.Store(int32(StateUpdating))

	for _, quote := range quotes {
		r.cache.Set(quote)
	}
	for symbol, rec := range closes {
		if err := columnar.Append(r.marketFile(symbol), []columnar.DailyCloseRecord{rec}); err != nil {
			r.logger.Warn("failed to append daily close",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		r.archiveClose(ctx, rec)
	}

	r.logger.Info("refresh tick complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("prices", len(quotes)),
		zap.Int("closes", len(closes)))
}

func (r *Refresher) fetchLatest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.quotes.LatestPrice(fetchCtx, symbol)
}

// fetchMissingClose reads the symbol's market file and, when no record for
// date exists yet, fetches the close from the provider. ok is false when the
// date is already on disk.
func (r *Refresher) fetchMissingClose(ctx context.Context, symbol, date string) (columnar.DailyCloseRecord, bool, error) {
	existing, err := columnar.ReadAll[columnar.DailyCloseRecord](r.marketFile(symbol))
	if err != nil {
		return columnar.DailyCloseRecord{}, false, err
	}
	for _, rec := range existing {
		if rec.Date == date {
			return columnar.DailyCloseRecord{}, false, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	closePrice, err := r.quotes.ClosePrice(fetchCtx, symbol, date)
	if err != nil {
		return columnar.DailyCloseRecord{}, false, err
	}
	return columnar.DailyCloseRecord{Symbol: symbol, Date: date, Close: closePrice.String()}, true, nil
}

func (r *Refresher) archiveClose(ctx context.Context, rec columnar.DailyCloseRecord) {
	if r.archive == nil {
		return
	}
	if err := r.archive.InsertDailyClose(ctx, rec.Symbol, rec.Date, rec.Close); err != nil {
		r.logger.Warn("failed to archive daily close",
			zap.String("symbol", rec.Symbol), zap.String("date", rec.Date), zap.Error(err))
	}
}

func (r *Refresher) marketFile(symbol string) string {
	return filepath.Join(r.dataDir, "market", symbol, closesFileName)
}
