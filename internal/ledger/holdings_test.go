package ledger

import (
	"reflect"
	"testing"
)

func TestHoldingsForSumsBySymbol(t *testing.T) {
	l := newTestLedger(t)

	mustRecord(t, l, "alice", "AAPL", "5", "10.0")
	mustRecord(t, l, "alice", "AAPL", "-2", "12.0")
	mustRecord(t, l, "alice", "MSFT", "4", "300")

	holdings, err := l.HoldingsFor("alice")
	if err != nil {
		t.Fatalf("holdings for alice: %v", err)
	}
	if got := holdings["AAPL"]; !got.Equal(dec("3")) {
		t.Errorf("AAPL net = %s, want 3", got)
	}
	if got := holdings["MSFT"]; !got.Equal(dec("4")) {
		t.Errorf("MSFT net = %s, want 4", got)
	}
}

func TestHoldingsIndependentOfOtherUsers(t *testing.T) {
	l := newTestLedger(t)

	mustRecord(t, l, "bob", "AAPL", "100", "1")
	mustRecord(t, l, "alice", "AAPL", "5", "10.0")
	mustRecord(t, l, "bob", "TSLA", "50", "2")
	mustRecord(t, l, "alice", "AAPL", "-2", "12.0")

	holdings, err := l.HoldingsFor("alice")
	if err != nil {
		t.Fatalf("holdings for alice: %v", err)
	}
	if len(holdings) != 1 || !holdings["AAPL"].Equal(dec("3")) {
		t.Errorf("unexpected holdings for alice: %v", holdings)
	}
}

func TestHoldingsOmitZeroNetPositions(t *testing.T) {
	l := newTestLedger(t)

	mustRecord(t, l, "alice", "AAPL", "5", "10")
	mustRecord(t, l, "alice", "AAPL", "-5", "11")
	mustRecord(t, l, "alice", "MSFT", "1", "300")

	holdings, err := l.HoldingsFor("alice")
	if err != nil {
		t.Fatalf("holdings for alice: %v", err)
	}
	if _, ok := holdings["AAPL"]; ok {
		t.Errorf("zero-net position must be omitted, got %v", holdings)
	}
	if len(holdings) != 1 {
		t.Errorf("expected only MSFT, got %v", holdings)
	}
}

func TestAllSymbolsIsSortedUnion(t *testing.T) {
	l := newTestLedger(t)

	mustRecord(t, l, "alice", "MSFT", "1", "300")
	mustRecord(t, l, "bob", "AAPL", "2", "200")
	mustRecord(t, l, "alice", "AAPL", "3", "210")

	got := l.AllSymbols()
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("symbols = %v, want %v", got, want)
	}
}

func TestAllHoldingsCoversEveryUser(t *testing.T) {
	l := newTestLedger(t)

	mustRecord(t, l, "alice", "AAPL", "5", "10")
	mustRecord(t, l, "bob", "TSLA", "2", "500")

	all := l.AllHoldings()
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	if !all["alice"]["AAPL"].Equal(dec("5")) || !all["bob"]["TSLA"].Equal(dec("2")) {
		t.Errorf("unexpected holdings: %v", all)
	}
}

func mustRecord(t *testing.T, l *Ledger, user, symbol, amount, price string) {
	t.Helper()
	if _, err := l.Record(user, symbol, dec(amount), dec(price)); err != nil {
		t.Fatalf("record(%s, %s, %s, %s): %v", user, symbol, amount, price, err)
	}
}
