package leaderboard

import (
	"math"

	"github.com/bc-tools/sales-board/pkg/models/domain"
)

// Monthly revenue targets per clinic in IDR, agreed with management for
// the current program. Clinics without an entry get the default.
var monthlyTargets = map[string]float64{
	"Beauty Center Kaliurang":    64_560_000,
	"Beauty Center Parangtritis": 76_597_680,
	"Beauty Center Godean":       74_609_760,
	"Beauty Center Kotagede":     69_834_960,
	"Beauty Center Prambanan":    66_057_600,
	"Beauty Center Bantul":       73_374_040,
	"Beauty Center Maguwoharjo":  77_970_480,
	"Rumah Cantik Rajawali":      32_650_080,
	"Beauty Center Muntilan":     61_705_400,
	"Beauty Center Wates":        69_240_000,
}

const (
	defaultMonthlyTarget = 50_000_000
	daysPerMonth         = 30
)

// TargetFor scales a clinic's monthly target to the selected window:
// a thirtieth per day, seven thirtieths per week, twelve months per year.
func TargetFor(name string, filter domain.Filter) float64 {
	monthly, ok := monthlyTargets[name]
	if !ok {
		monthly = defaultMonthlyTarget
	}

	daily := math.Round(monthly / daysPerMonth)
	switch filter {
	case domain.FilterDaily:
		return daily
	case domain.FilterWeekly:
		return daily * 7
	case domain.FilterYearly, domain.FilterYTD:
		return monthly * 12
	default:
		return monthly
	}
}

func achievement(total, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(total / target * 100))
}
