package sales

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bc-tools/sales-board/pkg/models/api"
	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/bc-tools/sales-board/pkg/services/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	rows    []domain.LeaderboardRow
	events  []domain.Event
	clinics []domain.Clinic
	lastQ   period.Query
}

func (s *stubService) Leaderboard(_ context.Context, q period.Query) []domain.LeaderboardRow {
	s.lastQ = q
	return s.rows
}

func (s *stubService) StreamLeaderboard(_ context.Context, q period.Query) <-chan domain.Event {
	s.lastQ = q
	events := make(chan domain.Event, len(s.events))
	for _, event := range s.events {
		events <- event
	}
	close(events)
	return events
}

func (s *stubService) Clinics(context.Context) []domain.Clinic {
	return s.clinics
}

func TestGetSales(t *testing.T) {
	svc := &stubService{rows: []domain.LeaderboardRow{
		{ClinicID: 2, ClinicName: "Beauty Center Bantul", Total: 450, ProductTotal: 300, TreatmentTotal: 150, Target: 1000, Achievement: 45},
	}}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/sales?filter=weekly&week=2&month=11&year=2025", nil)
	rec := httptest.NewRecorder()
	handler.GetSales(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, period.Query{Filter: "weekly", Week: 2, Month: 11, Year: 2025}, svc.lastQ)

	var rows []api.LeaderboardRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Beauty Center Bantul", rows[0].Name)
	assert.InDelta(t, 450, rows[0].Total, 1e-9)
	assert.InDelta(t, rows[0].ProductTotal+rows[0].TreatmentTotal, rows[0].Total, 1e-9)
	assert.Equal(t, 45, rows[0].Achievement)
}

func TestGetSales_MalformedNumbersTreatedAsUnset(t *testing.T) {
	svc := &stubService{}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/sales?filter=weekly&week=two&month=&year=x", nil)
	handler.GetSales(httptest.NewRecorder(), req)

	assert.Equal(t, period.Query{Filter: "weekly"}, svc.lastQ)
}

func TestStreamSales(t *testing.T) {
	svc := &stubService{events: []domain.Event{
		{Type: domain.EventProgress, Progress: &domain.Progress{Clinic: "Beauty Center Bantul", Percent: 25, Current: 1, Total: 2}},
		{Type: domain.EventProgress, Progress: &domain.Progress{Clinic: "Beauty Center Godean", Percent: 75, Current: 2, Total: 2}},
		{Type: domain.EventComplete, Rows: []domain.LeaderboardRow{{ClinicID: 3, ClinicName: "Beauty Center Godean", Total: 300}}},
	}}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/sales-progress?filter=daily", nil)
	rec := httptest.NewRecorder()
	handler.StreamSales(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := parseFrames(t, rec.Body.String())
	require.Len(t, frames, 3)

	assert.Equal(t, "progress", frames[0].Type)
	assert.Equal(t, 1, frames[0].Current)
	assert.Equal(t, "progress", frames[1].Type)
	assert.Equal(t, 2, frames[1].Current)

	assert.Equal(t, "complete", frames[2].Type)
	require.Len(t, frames[2].Data, 1)
	assert.Equal(t, "Beauty Center Godean", frames[2].Data[0].Name)
}

func TestStreamSales_TerminalError(t *testing.T) {
	svc := &stubService{events: []domain.Event{
		{Type: domain.EventError, Err: assert.AnError},
	}}
	handler := NewHandler(svc)

	rec := httptest.NewRecorder()
	handler.StreamSales(rec, httptest.NewRequest(http.MethodGet, "/sales-progress", nil))

	frames := parseFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0].Type)
	assert.NotEmpty(t, frames[0].Message)
}

func TestListClinics(t *testing.T) {
	svc := &stubService{clinics: []domain.Clinic{{ID: 2, Name: "Beauty Center Bantul"}}}
	handler := NewHandler(svc)

	rec := httptest.NewRecorder()
	handler.ListClinics(rec, httptest.NewRequest(http.MethodGet, "/clinics", nil))

	var clinics []api.Clinic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clinics))
	assert.Equal(t, []api.Clinic{{ID: 2, Name: "Beauty Center Bantul"}}, clinics)
}

// parseFrames decodes the JSON payload of each "data:" SSE frame.
func parseFrames(t *testing.T, body string) []api.StreamEvent {
	t.Helper()

	var frames []api.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame api.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}
