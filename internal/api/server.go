// Package api exposes the ledger and market data over HTTP. All price data
// is served from the in-memory cache, never fetched from the provider inside
// a request.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stocktracker/internal/ledger"
	"stocktracker/internal/market"
	"stocktracker/internal/telemetry"
	"stocktracker/pkg/storage/postgres"
)

// CloseArchive is the read side of the daily-close archive. Nil when the
// archive is not configured.
type CloseArchive interface {
	GetDailyClose(ctx context.Context, symbol, date string) (*postgres.DailyCloseRecord, error)
	ListDailyCloses(ctx context.Context, symbol string) ([]postgres.DailyCloseRecord, error)
	IsHealthy(ctx context.Context) bool
}

type Server struct {
	Ledger  *ledger.Ledger
	Cache   *market.Cache
	Archive CloseArchive
	Logger  *zap.Logger
}

func NewServer(l *ledger.Ledger, cache *market.Cache, archive CloseArchive, logger *zap.Logger) *Server {
	return &Server{Ledger: l, Cache: cache, Archive: archive, Logger: logger}
}

// Router builds the service's HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(telemetry.RequestMetricsMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/debug/vars", expvar.Handler())
	r.Post("/holdings/transaction", s.handleAddTransaction)
	r.Get("/holdings/orders", s.handleListOrders)
	r.Get("/holdings/orders/{user}", s.handleListOrdersForUser)
	r.Get("/holdings", s.handleAllHoldings)
	r.Get("/holdings/{user}", s.handleHoldingsForUser)
	r.Get("/market/prices", s.handleAllPrices)
	r.Get("/market/symbols", s.handleSymbols)
	r.Get("/market/closes/{symbol}", s.handleArchivedCloses)
	r.Get("/activities/{id}", s.handleActivity)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{"status": "ok", "archive": "disabled"}
	if s.Archive != nil {
		health["archive"] = "ok"
		if !s.Archive.IsHealthy(r.Context()) {
			health["archive"] = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, health)
}

// handleArchivedCloses serves the daily-close history from the relational
// archive. With a date query parameter it returns the single close for that
// day, otherwise the full history in date order.
func (s *Server) handleArchivedCloses(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeError(w, http.StatusNotFound, "close archive is not enabled")
		return
	}
	symbol := chi.URLParam(r, "symbol")

	if date := r.URL.Query().Get("date"); date != "" {
		record, err := s.Archive.GetDailyClose(r.Context(), symbol, date)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound,
					fmt.Sprintf("no archived close for %s on %s", symbol, date))
				return
			}
			s.Logger.Error("failed to load archived close",
				zap.String("symbol", symbol), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load archived close")
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	records, err := s.Archive.ListDailyCloses(r.Context(), symbol)
	if err != nil {
		s.Logger.Error("failed to list archived closes",
			zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list archived closes")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no archived closes for %s", symbol))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type transactionRequest struct {
	User   string          `json:"user"`
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.Ledger.Record(req.User, req.Symbol, req.Amount, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.Logger.Error("failed to record transaction",
				zap.String("user", req.User), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to record transaction")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	transactions := s.Ledger.ListAll()
	if transactions == nil {
		transactions = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleListOrdersForUser(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	transactions, err := s.Ledger.ListFor(user)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no transactions for user %s", user))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleAllHoldings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.AllHoldings())
}

func (s *Server) handleHoldingsForUser(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	holdings, err := s.Ledger.HoldingsFor(user)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no holdings for user %s", user))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute holdings")
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleAllPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cache.AllPrices())
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.AllSymbols())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	tx, ok := s.Ledger.LookupActivity(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no activity with id %d", id))
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}
