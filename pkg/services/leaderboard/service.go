package leaderboard

import (
	"context"
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/bc-tools/sales-board/pkg/services/directory"
	"github.com/bc-tools/sales-board/pkg/services/period"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Service is the surface the HTTP handlers talk to. Leaderboard is the
// cached request/response mode; StreamLeaderboard is the streaming mode.
// Neither ever fails the caller: failures degrade to stale or empty data
// in cached mode and to a terminal error event in streaming mode.
type Service interface {
	Leaderboard(ctx context.Context, q period.Query) []domain.LeaderboardRow
	StreamLeaderboard(ctx context.Context, q period.Query) <-chan domain.Event
	Clinics(ctx context.Context) []domain.Clinic
}

type Options struct {
	Directory  directory.Resolver
	Aggregator Aggregator
	TTL        time.Duration
	// Retention keeps expired entries around for the stale-fallback path;
	// go-cache evicts them once it lapses.
	Retention time.Duration
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

type service struct {
	directory directory.Resolver
	agg       Aggregator
	cache     *gocache.Cache
	group     singleflight.Group
	ttl       time.Duration
	now       func() time.Time
}

type cacheEntry struct {
	Rows       []domain.LeaderboardRow
	ComputedAt time.Time
}

func NewService(opts Options) Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		directory: opts.Directory,
		agg:       opts.Aggregator,
		cache:     gocache.New(opts.Retention, opts.Retention),
		ttl:       opts.TTL,
		now:       now,
	}
}

func (s *service) Leaderboard(ctx context.Context, q period.Query) []domain.LeaderboardRow {
	logger := zerolog.Ctx(ctx)
	p := period.Resolve(q, s.now())
	key := p.Key()

	if entry, ok := s.lookup(key); ok && s.fresh(entry) {
		logger.Debug().
			Str("key", key).
			Dur("age", s.now().Sub(entry.ComputedAt)).
			Msg("serving leaderboard from cache")
		return entry.Rows
	}

	// Concurrent misses for the same key attach to one upstream run.
	// The run is detached from the request context: once started it
	// finishes even if the triggering client goes away.
	runCtx := context.WithoutCancel(ctx)
	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		rows, err := s.agg.Aggregate(runCtx, s.roster(runCtx), p)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, cacheEntry{Rows: rows, ComputedAt: s.now()}, gocache.DefaultExpiration)
		return rows, nil
	})
	if err != nil {
		if entry, ok := s.lookup(key); ok {
			logger.Warn().Err(err).Str("key", key).Msg("aggregation failed, serving stale cache")
			return entry.Rows
		}
		logger.Error().Err(err).Str("key", key).Msg("aggregation failed with no cache to fall back on")
		return []domain.LeaderboardRow{}
	}
	if shared {
		logger.Debug().Str("key", key).Msg("attached to in-flight aggregation")
	}
	return result.([]domain.LeaderboardRow)
}

func (s *service) StreamLeaderboard(ctx context.Context, q period.Query) <-chan domain.Event {
	p := period.Resolve(q, s.now())
	return s.agg.Stream(ctx, s.roster(ctx), p)
}

func (s *service) Clinics(ctx context.Context) []domain.Clinic {
	return s.roster(ctx)
}

// roster resolves the clinic directory, applying the fallback policy at
// this call site: an unavailable directory degrades to the static roster,
// never to an error.
func (s *service) roster(ctx context.Context) []domain.Clinic {
	clinics, err := s.directory.Resolve(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("clinic directory unavailable, using static roster")
		clinics = directory.DefaultRoster
	}
	return directory.InProgram(clinics)
}

func (s *service) lookup(key string) (cacheEntry, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		return cacheEntry{}, false
	}
	entry, ok := value.(cacheEntry)
	return entry, ok
}

func (s *service) fresh(entry cacheEntry) bool {
	return s.now().Sub(entry.ComputedAt) < s.ttl
}
