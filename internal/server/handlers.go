package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"blip_sim/internal/domain"

	"github.com/go-chi/chi/v5"
)

type handler struct {
	deps Deps
}

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const maxSettlementLimit = 200

func (h *handler) getDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Dashboard.Dashboard())
}

func (h *handler) listOrders(w http.ResponseWriter, _ *http.Request) {
	snap := h.deps.Dashboard.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		NewOrders []domain.OrderView `json:"new_orders"`
		InEscrow  []domain.OrderView `json:"in_escrow"`
		Completed []domain.OrderView `json:"completed"`
		ClockMs   int64              `json:"clock_ms"`
		Version   uint64             `json:"version"`
	}{
		NewOrders: toViews(snap.NewOrders),
		InEscrow:  toViews(snap.InEscrow),
		Completed: toViews(snap.Completed),
		ClockMs:   snap.Clock.Milliseconds(),
		Version:   snap.Version,
	})
}

func (h *handler) acceptOrder(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, h.deps.Commands.Accept)
}

func (h *handler) releaseOrder(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, h.deps.Commands.Release)
}

func (h *handler) runCommand(w http.ResponseWriter, r *http.Request, cmd func(context.Context, string) (domain.Order, error)) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.CommandTimeout)
	defer cancel()

	o, err := cmd(ctx, id)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Command failed", slog.String("id", id), slog.Any("error", err))
		}
		writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, domain.NewOrderView(o))
}

func (h *handler) listSettlements(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ledger == nil {
		writeJSON(w, http.StatusOK, []domain.SettledOrder{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_ARGUMENT", Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxSettlementLimit)
	}

	rows, err := h.deps.Ledger.RecentSettlements(limit)
	if err != nil {
		slog.Error("Failed to read settlements", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) settlementSummary(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Ledger == nil {
		writeJSON(w, http.StatusOK, map[string]int64{})
		return
	}

	counts, err := h.deps.Ledger.CountByPath()
	if err != nil {
		slog.Error("Failed to count settlements", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *handler) getMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Metrics.Snapshot())
}

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrWrongStage):
		return http.StatusConflict, "WRONG_STAGE"
	case errors.Is(err, domain.ErrSimulatorStopped):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func toViews(orders []domain.Order) []domain.OrderView {
	out := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.NewOrderView(o))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", slog.Any("error", err))
	}
}
