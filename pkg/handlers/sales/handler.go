package sales

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bc-tools/sales-board/pkg/models/api"
	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/bc-tools/sales-board/pkg/services/leaderboard"
	"github.com/bc-tools/sales-board/pkg/services/period"
	"github.com/rs/zerolog"
)

type Handler struct {
	sales leaderboard.Service
}

func NewHandler(sales leaderboard.Service) *Handler {
	return &Handler{sales: sales}
}

// GetSales serves the cached leaderboard as a JSON array.
func (h *Handler) GetSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	rows := h.sales.Leaderboard(ctx, queryFromRequest(r))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toAPIRows(rows)); err != nil {
		logger.Error().Err(err).Msg("failed to encode leaderboard")
	}
}

// StreamSales serves one aggregation run as a server-sent event stream:
// a progress frame per clinic, then a single complete or error frame.
func (h *Handler) StreamSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range h.sales.StreamLeaderboard(ctx, queryFromRequest(r)) {
		payload, err := json.Marshal(toAPIEvent(event))
		if err != nil {
			logger.Error().Err(err).Msg("failed to encode stream event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			logger.Debug().Err(err).Msg("stream client went away")
			return
		}
		flusher.Flush()
	}
}

// ListClinics serves the resolved in-program roster.
func (h *Handler) ListClinics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	clinics := h.sales.Clinics(ctx)
	response := make([]api.Clinic, 0, len(clinics))
	for _, c := range clinics {
		response = append(response, api.Clinic{ID: c.ID, Name: c.Name})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode clinics")
	}
}

func queryFromRequest(r *http.Request) period.Query {
	q := r.URL.Query()
	return period.Query{
		Filter: q.Get("filter"),
		Date:   q.Get("date"),
		Week:   intParam(q.Get("week")),
		Month:  intParam(q.Get("month")),
		Year:   intParam(q.Get("year")),
	}
}

// intParam treats absent or malformed values as unset.
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func toAPIRows(rows []domain.LeaderboardRow) []api.LeaderboardRow {
	response := make([]api.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		response = append(response, api.LeaderboardRow{
			ID:             row.ClinicID,
			Name:           row.ClinicName,
			Total:          row.Total,
			ProductTotal:   row.ProductTotal,
			TreatmentTotal: row.TreatmentTotal,
			Target:         row.Target,
			Achievement:    row.Achievement,
		})
	}
	return response
}

func toAPIEvent(event domain.Event) api.StreamEvent {
	switch event.Type {
	case domain.EventProgress:
		return api.StreamEvent{
			Type:     string(domain.EventProgress),
			Clinic:   event.Progress.Clinic,
			Progress: event.Progress.Percent,
			Total:    event.Progress.Total,
			Current:  event.Progress.Current,
		}
	case domain.EventComplete:
		return api.StreamEvent{
			Type: string(domain.EventComplete),
			Data: toAPIRows(event.Rows),
		}
	default:
		message := "aggregation failed"
		if event.Err != nil {
			message = event.Err.Error()
		}
		return api.StreamEvent{Type: string(domain.EventError), Message: message}
	}
}
