package domain

import "time"

type Filter string

const (
	FilterDaily   Filter = "daily"
	FilterWeekly  Filter = "weekly"
	FilterMonthly Filter = "monthly"
	FilterYearly  Filter = "yearly"
	FilterYTD     Filter = "ytd"
)

// Period is a closed date range in the local civil calendar.
// Start and End carry date parts only; Start is never after End.
type Period struct {
	Filter Filter
	Start  time.Time
	End    time.Time
}

func (p Period) StartDate() string { return p.Start.Format("2006-01-02") }

func (p Period) EndDate() string { return p.End.Format("2006-01-02") }

// Key identifies the period for caching and coalescing. Queries that
// resolve to the same window share one key.
func (p Period) Key() string {
	return string(p.Filter) + "-" + p.StartDate() + "-" + p.EndDate()
}
