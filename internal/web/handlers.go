package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/storage/ledger"
)

const maxBodyBytes = 1 << 16

type quoteRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type executeRequest struct {
	QuoteID string `json:"quoteId"`
}

type executeResponse struct {
	Success bool                `json:"success"`
	Tx      *domain.Transaction `json:"tx,omitempty"`
	Message string              `json:"message,omitempty"`
}

type tickerResponse struct {
	Base  domain.Currency `json:"base"`
	Quote domain.Currency `json:"quote"`
	domain.TickerSnapshot
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleWallets(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.services.Wallets.List())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	size, err := intParam(q.Get("size"), ledger.DefaultPageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid size")
		return
	}
	order, err := ledger.ParseSortOrder(q.Get("sort"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.services.Transactions.List(page, size, order))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	from, err := domain.ParseCurrency(req.From)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := domain.ParseCurrency(req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := s.services.Exchange.CreateQuote(r.Context(), from, to, req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeBody(w, r, &req); err != nil || req.QuoteID == "" {
		s.writeJSON(w, http.StatusBadRequest, executeResponse{Message: "Invalid input"})
		return
	}

	tx, err := s.services.Exchange.Execute(r.Context(), req.QuoteID)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("exchange execution failed", zap.String("quote", req.QuoteID), zap.Error(err))
		}
		s.writeJSON(w, status, executeResponse{Message: messageFor(err)})
		return
	}

	s.writeJSON(w, http.StatusOK, executeResponse{Success: true, Tx: &tx})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	base, err := domain.ParseCurrency(q.Get("base"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quote, err := domain.ParseCurrency(q.Get("quote"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := tickerResponse{Base: base, Quote: quote}
	resp.TickerSnapshot, err = s.services.Tickers.GetTicker(r.Context(), base, quote)
	status := http.StatusOK
	if err != nil {
		// the neutral snapshot is still a valid body
		resp.Error = err.Error()
		status = statusFor(err)
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeError(w, status, messageFor(err))
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFeedUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Quote not found"
	case errors.Is(err, domain.ErrExpired):
		return "Quote expired"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrFeedUnavailable):
		return err.Error()
	default:
		return "internal error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	return strconv.Atoi(raw)
}
