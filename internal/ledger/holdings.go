package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HoldingsFor derives the net position per symbol for one user by summing the
// amounts of all their transactions. Symbols that net to exactly zero are
// omitted. Returns ErrNotFound for a user with no transactions.
func (l *Ledger) HoldingsFor(user string) (map[string]decimal.Decimal, error) {
	transactions, err := l.ListFor(user)
	if err != nil {
		return nil, err
	}
	return netAmounts(transactions), nil
}

// AllHoldings derives the holdings of every known user.
func (l *Ledger) AllHoldings() map[string]map[string]decimal.Decimal {
	l.mu.RLock()
	users := make([]string, 0, len(l.users))
	for user := range l.users {
		users = append(users, user)
	}
	l.mu.RUnlock()

	out := make(map[string]map[string]decimal.Decimal, len(users))
	for _, user := range users {
		holdings, err := l.HoldingsFor(user)
		if err != nil {
			continue
		}
		out[user] = holdings
	}
	return out
}

// AllSymbols returns the sorted union of every symbol appearing in any
// user's transactions. This is the refresh target for the market data
// refresher, recomputed on each call.
func (l *Ledger) AllSymbols() []string {
	seen := make(map[string]struct{})
	for _, tx := range l.ListAll() {
		seen[tx.Symbol] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func netAmounts(transactions []Transaction) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		net[tx.Symbol] = net[tx.Symbol].Add(tx.Amount)
	}
	for symbol, amount := range net {
		if amount.IsZero() {
			delete(net, symbol)
		}
	}
	return net
}
