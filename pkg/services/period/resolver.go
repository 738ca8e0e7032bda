package period

import (
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
)

// Query carries the raw filter parameters from a request. Zero values mean
// "not provided" and fall back to the current date parts.
type Query struct {
	Filter string
	Date   string
	Week   int
	Month  int
	Year   int
}

// Resolve turns a query into a concrete date range. An unknown filter is
// treated as daily. Dates are computed from local wall-clock date parts;
// no UTC conversion is involved.
//
// Weekly ranges are fixed 7-day blocks anchored at the 1st of the month:
// week N spans days 1+(N-1)*7 through min(start+6, last day of month).
// Monday-aligned weeks are deliberately not used; they produce ranges that
// spill into the next month and never cover the first days of this one.
func Resolve(q Query, now time.Time) domain.Period {
	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	month := time.Month(q.Month)
	if q.Month < 1 || q.Month > 12 {
		month = now.Month()
	}
	week := q.Week
	if week < 1 {
		week = 1
	} else if week > 5 {
		week = 5
	}

	today := midnight(now)

	switch domain.Filter(q.Filter) {
	case domain.FilterWeekly:
		lastDay := daysIn(year, month)
		startDay := 1 + (week-1)*7
		if startDay > lastDay {
			startDay = lastDay
		}
		endDay := startDay + 6
		if endDay > lastDay {
			endDay = lastDay
		}
		return domain.Period{
			Filter: domain.FilterWeekly,
			Start:  time.Date(year, month, startDay, 0, 0, 0, 0, time.Local),
			End:    time.Date(year, month, endDay, 0, 0, 0, 0, time.Local),
		}
	case domain.FilterMonthly:
		return domain.Period{
			Filter: domain.FilterMonthly,
			Start:  time.Date(year, month, 1, 0, 0, 0, 0, time.Local),
			End:    time.Date(year, month, daysIn(year, month), 0, 0, 0, 0, time.Local),
		}
	case domain.FilterYearly:
		return domain.Period{
			Filter: domain.FilterYearly,
			Start:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local),
			End:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local),
		}
	case domain.FilterYTD:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
		end := today
		if end.Before(start) {
			end = start
		}
		return domain.Period{Filter: domain.FilterYTD, Start: start, End: end}
	default:
		day := today
		if q.Date != "" {
			if parsed, err := time.ParseInLocation("2006-01-02", q.Date, time.Local); err == nil {
				day = parsed
			}
		}
		return domain.Period{Filter: domain.FilterDaily, Start: day, End: day}
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// daysIn returns the number of days in the given month; day 0 of the next
// month is the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}
