package leaderboard

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/bc-tools/sales-board/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Aggregator builds leaderboard rows by fetching both reports per clinic.
// Clinics are processed strictly sequentially with small delays between
// calls; this is a deliberate throttle against the upstream rate limit.
type Aggregator interface {
	// Stream runs one aggregation, emitting a progress event per clinic
	// followed by exactly one complete or error event, then closes the
	// channel.
	Stream(ctx context.Context, clinics []domain.Clinic, period domain.Period) <-chan domain.Event

	// Aggregate runs one aggregation to completion.
	Aggregate(ctx context.Context, clinics []domain.Clinic, period domain.Period) ([]domain.LeaderboardRow, error)
}

type aggregator struct {
	fetcher     report.Fetcher
	reportDelay time.Duration
}

func NewAggregator(fetcher report.Fetcher, reportDelay time.Duration) Aggregator {
	return &aggregator{fetcher: fetcher, reportDelay: reportDelay}
}

func (a *aggregator) Stream(
	ctx context.Context,
	clinics []domain.Clinic,
	period domain.Period,
) <-chan domain.Event {
	events := make(chan domain.Event)

	go func() {
		defer close(events)
		logger := zerolog.Ctx(ctx)

		rows := make([]domain.LeaderboardRow, 0, len(clinics))
		total := len(clinics)

		for i, clinic := range clinics {
			progress := domain.Event{
				Type: domain.EventProgress,
				Progress: &domain.Progress{
					Clinic:  clinic.Name,
					Percent: progressPercent(i, total),
					Current: i + 1,
					Total:   total,
				},
			}
			if !emit(ctx, events, progress) {
				return
			}

			row, err := a.processClinic(ctx, clinic, period)
			if err != nil {
				logger.Error().Err(err).Str("clinic", clinic.Name).Msg("aggregation run aborted")
				emit(ctx, events, domain.Event{Type: domain.EventError, Err: err})
				return
			}
			rows = append(rows, row)
		}

		// Stable sort keeps the original clinic order for equal totals.
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Total > rows[j].Total
		})

		emit(ctx, events, domain.Event{Type: domain.EventComplete, Rows: rows})
	}()

	return events
}

func (a *aggregator) Aggregate(
	ctx context.Context,
	clinics []domain.Clinic,
	period domain.Period,
) ([]domain.LeaderboardRow, error) {
	for event := range a.Stream(ctx, clinics, period) {
		switch event.Type {
		case domain.EventComplete:
			return event.Rows, nil
		case domain.EventError:
			return nil, event.Err
		}
	}
	return nil, ctx.Err()
}

// processClinic fetches both reports for one clinic and sums them into a
// row. Fetch failures have already degraded to empty record sets inside
// the fetcher; the only error out of here is context cancellation.
func (a *aggregator) processClinic(
	ctx context.Context,
	clinic domain.Clinic,
	period domain.Period,
) (domain.LeaderboardRow, error) {
	logger := zerolog.Ctx(ctx)

	products := a.fetcher.FetchAll(ctx, report.Products, clinic.ID, period)
	if !sleep(ctx, a.reportDelay) {
		return domain.LeaderboardRow{}, ctx.Err()
	}
	treatments := a.fetcher.FetchAll(ctx, report.Treatments, clinic.ID, period)
	if err := ctx.Err(); err != nil {
		return domain.LeaderboardRow{}, err
	}

	productTotal := sumAmounts(products, report.Products)
	treatmentTotal := sumAmounts(treatments, report.Treatments)
	total := productTotal.Add(treatmentTotal).InexactFloat64()
	target := TargetFor(clinic.Name, period.Filter)

	logger.Debug().
		Str("clinic", clinic.Name).
		Int("products", len(products)).
		Int("treatments", len(treatments)).
		Float64("total", total).
		Msg("clinic aggregated")

	return domain.LeaderboardRow{
		ClinicID:       clinic.ID,
		ClinicName:     clinic.Name,
		Total:          total,
		ProductTotal:   productTotal.InexactFloat64(),
		TreatmentTotal: treatmentTotal.InexactFloat64(),
		Target:         target,
		Achievement:    achievement(total, target),
	}, nil
}

func sumAmounts(records []report.Record, typ report.Type) decimal.Decimal {
	return lo.Reduce(records, func(acc decimal.Decimal, r report.Record, _ int) decimal.Decimal {
		return acc.Add(r.Amount(typ))
	}, decimal.Zero)
}

// progressPercent reports midway through clinic i so the bar advances
// before the (potentially slow) fetch finishes.
func progressPercent(i, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round((float64(i) + 0.5) / float64(total) * 100))
}

func emit(ctx context.Context, events chan<- domain.Event, event domain.Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
