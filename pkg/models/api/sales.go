package api

type Clinic struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type LeaderboardRow struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Total          float64 `json:"total"`
	ProductTotal   float64 `json:"productTotal"`
	TreatmentTotal float64 `json:"treatmentTotal"`
	Target         float64 `json:"target"`
	Achievement    int     `json:"achievement"`
}
