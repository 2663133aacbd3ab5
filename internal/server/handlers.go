package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cusdScope/internal/casper"
	"cusdScope/internal/events"
	"cusdScope/internal/fixedpoint"
	"cusdScope/internal/model"
	"cusdScope/internal/state"
	"cusdScope/internal/tx"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 200
	// Events scanned for vault owners when listing liquidation candidates.
	candidateScan = 500
)

// State is the read surface of the dashboard. *state.Service satisfies it.
type State interface {
	Snapshot(ctx context.Context) state.Snapshot
	Params(ctx context.Context) *model.ParamsView
	Price(ctx context.Context) *model.PriceRound
	PauseFlags(ctx context.Context) *model.PauseFlags
	TotalSupply(ctx context.Context) *big.Int
	LiquidationStats(ctx context.Context) *model.LiquidationStats
	RecentEvents(ctx context.Context, limit int) []model.DomainEvent
	Position(ctx context.Context, owner string) *model.VaultPosition
	Balance(ctx context.Context, owner string) *big.Int
	LiquidationCandidates(ctx context.Context, scan int) []model.VaultPosition
}

// Archive serves account history from the event archive. *postgres.Store
// satisfies it.
type Archive interface {
	RecentEvents(ctx context.Context, account string, limit int) ([]model.EventRecord, error)
}

// Relayer submits transactions signed by the browser wallet. *tx.Submitter
// satisfies it.
type Relayer interface {
	SubmitSigned(ctx context.Context, signed json.RawMessage) (tx.Receipt, error)
}

type handlers struct {
	state     State
	archive   Archive
	builder   *tx.Builder
	relayer   Relayer
	network   tx.Network
	logger    *zap.Logger
	now       func() time.Time
}

type amountView struct {
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

func stablecoinAmount(v *big.Int) *amountView {
	if v == nil {
		return nil
	}
	return &amountView{Raw: v.String(), Formatted: fixedpoint.FormatStablecoin(v)}
}

func (h *handlers) system(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot(r.Context()))
}

func (h *handlers) params(w http.ResponseWriter, r *http.Request) {
	writeOptional(w, h.state.Params(r.Context()), "params")
}

func (h *handlers) price(w http.ResponseWriter, r *http.Request) {
	round := h.state.Price(r.Context())
	if round == nil {
		writeOptional[model.PriceRound](w, nil, "price")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*model.PriceRound
		Formatted string `json:"formatted"`
	}{round, fixedpoint.FormatPrice(round.Price)})
}

func (h *handlers) paused(w http.ResponseWriter, r *http.Request) {
	writeOptional(w, h.state.PauseFlags(r.Context()), "pause flags")
}

func (h *handlers) supply(w http.ResponseWriter, r *http.Request) {
	writeOptional(w, stablecoinAmount(h.state.TotalSupply(r.Context())), "total supply")
}

func (h *handlers) liquidationStats(w http.ResponseWriter, r *http.Request) {
	writeOptional(w, h.state.LiquidationStats(r.Context()), "liquidation stats")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, events.ToRecords(h.state.RecentEvents(r.Context(), limit)))
}

func (h *handlers) vault(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	writeOptional(w, h.state.Position(r.Context(), owner), "vault")
}

func (h *handlers) activity(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if h.archive != nil {
		archived, err := h.archive.RecentEvents(r.Context(), owner, limit)
		if err == nil {
			if archived == nil {
				archived = []model.EventRecord{}
			}
			writeJSON(w, http.StatusOK, archived)
			return
		}
		h.logger.Warn("archive query failed, scanning event log", zap.String("owner", owner), zap.Error(err))
	}
	recent := h.state.RecentEvents(r.Context(), maxEventLimit)
	mine := events.ForAccount(recent, owner)
	if len(mine) > limit {
		mine = mine[:limit]
	}
	writeJSON(w, http.StatusOK, events.ToRecords(mine))
}

func (h *handlers) balance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	writeOptional(w, stablecoinAmount(h.state.Balance(r.Context(), owner)), "balance")
}

func (h *handlers) candidates(w http.ResponseWriter, r *http.Request) {
	out := h.state.LiquidationCandidates(r.Context(), candidateScan)
	if out == nil {
		out = []model.VaultPosition{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) preparePayment(w http.ResponseWriter, r *http.Request) {
	var req tx.PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, tx.ErrorPayload{Message: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	prepared, err := h.builder.PreparePayment(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, tx.ErrorPayload{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, prepared)
}

type submitRequest struct {
	Transaction json.RawMessage `json:"transaction"`
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil || len(req.Transaction) == 0 {
		writeJSON(w, http.StatusBadRequest, tx.ErrorPayload{Message: "signed transaction is required"})
		return
	}
	receipt, err := h.relayer.SubmitSigned(r.Context(), req.Transaction)
	if err != nil {
		status := http.StatusBadGateway
		var subErr *tx.SubmissionError
		if !errors.As(err, &subErr) {
			status = http.StatusInternalServerError
		}
		h.logger.Warn("payment submission failed", zap.Error(err))
		writeJSON(w, status, tx.ErrorPayload{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type prepareTxRequest struct {
	Initiator string `json:"initiator"`
	tx.Operation
}

func (h *handlers) prepareTx(w http.ResponseWriter, r *http.Request) {
	var req prepareTxRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	if _, err := casper.AccountHashFromPublicKey(req.Initiator); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("initiator: %w", err))
		return
	}
	call, err := h.builder.Build(req.Operation)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	txn, err := tx.NewTransaction(call, req.Initiator, h.network, h.now())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func ownerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, err := casper.NormalizeAccount(chi.URLParam(r, "owner"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("owner: %w", err))
		return "", false
	}
	return owner, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultEventLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > maxEventLimit {
		n = maxEventLimit
	}
	return n, nil
}
