package domain

// LeaderboardRow is one clinic's aggregated revenue for the selected window.
// Total is always ProductTotal + TreatmentTotal; all three are derived by
// summation, never set independently.
type LeaderboardRow struct {
	ClinicID       int
	ClinicName     string
	Total          float64
	ProductTotal   float64
	TreatmentTotal float64
	Target         float64
	Achievement    int
}

type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one message on an aggregation stream: any number of progress
// events followed by exactly one complete or error event.
type Event struct {
	Type     EventType
	Progress *Progress
	Rows     []LeaderboardRow
	Err      error
}

// Progress reports that an aggregation run reached clinic Current of Total.
// Percent is reported midway through the clinic, so the bar advances before
// the fetch finishes.
type Progress struct {
	Clinic  string
	Percent int
	Current int
	Total   int
}
