// Package ledger owns the authoritative in-memory transaction set and is the
// only writer to the per-user ledger files.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stocktracker/pkg/storage/columnar"
)

const ordersFileName = "orders.parquet"

// Ledger is a concurrency-safe collection of transactions per user. A write
// for one user holds only that user's lock while persisting, so independent
// users persist in parallel.
type Ledger struct {
	dataDir string
	logger  *zap.Logger

	mu         sync.RWMutex
	users      map[string]*userLedger
	activities map[uint64]Transaction
	lastID     atomic.Uint64
}

type userLedger struct {
	mu           sync.Mutex
	transactions []Transaction
}

// New creates a ledger persisting under dataDir.
func New(dataDir string, logger *zap.Logger) *Ledger {
	return &Ledger{
		dataDir:    dataDir,
		logger:     logger,
		users:      make(map[string]*userLedger),
		activities: make(map[uint64]Transaction),
	}
}

func (l *Ledger) userFile(user string) string {
	return filepath.Join(l.dataDir, "users", user, ordersFileName)
}

// Restore eagerly rehydrates every user's transactions from disk and advances
// the activity-id counter past any id found, so ids never collide after a
// restart. A file that cannot be decoded is skipped with a warning; other
// users are unaffected.
func (l *Ledger) Restore() error {
	usersDir := filepath.Join(l.dataDir, "users")
	entries, err := os.ReadDir(usersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read users dir: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		user := entry.Name()

		records, err := columnar.ReadAll[columnar.TransactionRecord](l.userFile(user))
		if err != nil {
			l.logger.Warn("skipping unreadable ledger file",
				zap.String("user", user), zap.Error(err))
			continue
		}

		// Stage the whole file first; a user whose file fails to decode
		// midway must not leave partial rows in the activity index.
		store := &userLedger{transactions: make([]Transaction, 0, len(records))}
		for _, rec := range records {
			tx, err := fromRecord(rec)
			if err != nil {
				l.logger.Warn("skipping unreadable ledger file",
					zap.String("user", user), zap.Error(err))
				store = nil
				break
			}
			store.transactions = append(store.transactions, tx)
		}
		if store == nil {
			continue
		}

		l.users[user] = store
		for _, tx := range store.transactions {
			l.activities[tx.ActivityID] = tx
			if tx.ActivityID > l.lastID.Load() {
				l.lastID.Store(tx.ActivityID)
			}
		}
	}

	l.logger.Info("ledger restored",
		zap.Int("users", len(l.users)), zap.Int("transactions", len(l.activities)))
	return nil
}

// Record validates, assigns the next activity id, appends in memory, and
// persists the new transaction to the user's ledger file. On a persistence
// failure the in-memory append is rolled back and ErrPersistence returned;
// the transaction is not recorded.
func (l *Ledger) Record(user, symbol string, amount, price decimal.Decimal) (Transaction, error) {
	if err := validate(user, symbol, amount, price); err != nil {
		return Transaction{}, err
	}

	store := l.userStore(user)
	store.mu.Lock()

	tx := Transaction{
		ActivityID: l.lastID.Add(1),
		User:       user,
		Symbol:     symbol,
		Amount:     amount,
		Price:      price,
		Timestamp:  time.Now().UTC(),
	}

	store.transactions = append(store.transactions, tx)
	if err := columnar.Append(l.userFile(user), []columnar.TransactionRecord{toRecord(tx)}); err != nil {
		store.transactions = store.transactions[:len(store.transactions)-1]
		store.mu.Unlock()
		l.dropEmptyUser(user, store)
		return Transaction{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	store.mu.Unlock()

	// The global map is never locked while a user lock is held, so writers
	// for different users never contend here beyond this short insert.
	l.mu.Lock()
	l.activities[tx.ActivityID] = tx
	if _, ok := l.users[user]; !ok {
		// A failed write for this user dropped the entry concurrently.
		l.users[user] = store
	}
	l.mu.Unlock()

	return tx, nil
}

// dropEmptyUser removes the map entry created for a first-ever Record whose
// persist failed, so the user does not appear to exist with no transactions.
func (l *Ledger) dropEmptyUser(user string, store *userLedger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.users[user] != store {
		return
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.transactions) == 0 {
		delete(l.users, user)
	}
}

// ListAll returns a snapshot of every transaction across all users, in
// insertion order per user.
func (l *Ledger) ListAll() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Transaction
	for _, store := range l.users {
		store.mu.Lock()
		out = append(out, store.transactions...)
		store.mu.Unlock()
	}
	return out
}

// ListFor returns the transactions of one user in insertion order, or
// ErrNotFound if the user has never recorded one.
func (l *Ledger) ListFor(user string) ([]Transaction, error) {
	l.mu.RLock()
	store, ok := l.users[user]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no transactions for user %s", ErrNotFound, user)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	out := make([]Transaction, len(store.transactions))
	copy(out, store.transactions)
	return out, nil
}

// LookupActivity resolves an activity id to its transaction.
func (l *Ledger) LookupActivity(id uint64) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx, ok := l.activities[id]
	return tx, ok
}

func (l *Ledger) userStore(user string) *userLedger {
	// Fast path: lock the user map for reading only.
	l.mu.RLock()
	store, ok := l.users[user]
	l.mu.RUnlock()
	if ok {
		return store
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if store, ok = l.users[user]; !ok {
		store = &userLedger{}
		l.users[user] = store
	}
	return store
}
