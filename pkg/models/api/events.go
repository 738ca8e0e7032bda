package api

// StreamEvent is one frame on the /sales-progress stream. Type is
// "progress", "complete" or "error"; the remaining fields are populated
// according to the type.
type StreamEvent struct {
	Type     string           `json:"type"`
	Clinic   string           `json:"clinic,omitempty"`
	Progress int              `json:"progress,omitempty"`
	Total    int              `json:"total,omitempty"`
	Current  int              `json:"current,omitempty"`
	Data     []LeaderboardRow `json:"data,omitempty"`
	Message  string           `json:"message,omitempty"`
}
