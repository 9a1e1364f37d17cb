package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLatestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quote/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("api key header = %q, want secret", got)
		}
		w.Write([]byte(`{"symbol":"AAPL","price":"230.45","timestamp":1756500000000}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", time.Second)
	price, err := client.LatestPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if price.String() != "230.45" {
		t.Errorf("price = %s, want 230.45", price)
	}
}

func TestLatestPriceDecodesNumericPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","price":230.45}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	price, err := client.LatestPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if price.String() != "230.45" {
		t.Errorf("price = %s, want 230.45", price)
	}
}

func TestClosePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quote/close" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "2025-08-29" {
			t.Errorf("date = %q, want 2025-08-29", got)
		}
		w.Write([]byte(`{"symbol":"AAPL","date":"2025-08-29","close":"228.10"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	price, err := client.ClosePrice(context.Background(), "AAPL", "2025-08-29")
	if err != nil {
		t.Fatalf("close price: %v", err)
	}
	if price.String() != "228.1" {
		t.Errorf("close = %s, want 228.1", price)
	}
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.LatestPrice(context.Background(), "NOPE"); err == nil {
		t.Errorf("expected error on non-200 response")
	}
}

func TestNonPositivePriceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","price":"0"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.LatestPrice(context.Background(), "AAPL"); err == nil {
		t.Errorf("expected error on non-positive price")
	}
}

func TestLatestPriceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.LatestPrice(ctx, "AAPL"); err == nil {
		t.Errorf("expected timeout error")
	}
}
