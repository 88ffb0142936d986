package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a stored computation is served without recomputing
const DefaultCacheTTL = 24 * time.Hour

// HistoryProvider fetches raw NAV history for a scheme
type HistoryProvider interface {
	FetchHistory(ctx context.Context, code string) (*History, error)
}

// SchemeLookup resolves scheme metadata
type SchemeLookup interface {
	Get(code string) (*funds.Scheme, error)
}

// AliveChecker verifies a storage handle before use
type AliveChecker interface {
	EnsureAlive(ctx context.Context) error
}

// Returns is the periodic-returns view of one scheme
type Returns struct {
	Code        string       `json:"code"`
	SchemeName  string       `json:"scheme_name"`
	Results     ReturnResult `json:"results"`
	Approximate []string     `json:"approximate,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Cached      bool         `json:"cached"`
	Stale       bool         `json:"stale,omitempty"`
}

// Service serves periodic returns from the cache, computing them on a miss
type Service struct {
	repo     *Repository
	schemes  SchemeLookup
	provider HistoryProvider
	calc     *Calculator
	db       AliveChecker
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a returns service. schemes and db may be nil.
func NewService(
	repo *Repository,
	schemes SchemeLookup,
	provider HistoryProvider,
	calc *Calculator,
	db AliveChecker,
	ttl time.Duration,
	log zerolog.Logger,
) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:     repo,
		schemes:  schemes,
		provider: provider,
		calc:     calc,
		db:       db,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("service", "returns").Logger(),
	}
}

// GetReturns returns periodic returns for a scheme.
//
// A stored computation younger than the TTL is served as is. Otherwise the history
// is fetched and recomputed. When the provider fails, a stale stored computation is
// served if one exists. ErrNoData means nothing is available.
func (s *Service) GetReturns(ctx context.Context, code string) (*Returns, error) {
	if err := s.ensureAlive(ctx); err != nil {
		return nil, err
	}

	cached, err := s.repo.Get(code)
	if err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("Failed to read cached returns")
		cached = nil
	}
	if cached != nil && s.now().Sub(cached.UpdatedAt) < s.ttl {
		s.log.Debug().Str("code", code).Msg("Cache hit")
		return fromCache(cached, false), nil
	}

	history, err := s.provider.FetchHistory(ctx, code)
	if err != nil {
		if cached != nil {
			s.log.Warn().Err(err).Str("code", code).Msg("Provider failed, serving stale cached returns")
			return fromCache(cached, true), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Debug().Err(err).Str("code", code).Msg("No NAV history available")
		if errors.Is(err, ErrNoData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	ret, rec, err := s.compute(history)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Store(*rec); err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("Failed to cache computed returns")
	}
	return ret, nil
}

// Refresh recomputes and stores returns for an already fetched history
func (s *Service) Refresh(ctx context.Context, history *History) (*Returns, error) {
	if err := s.ensureAlive(ctx); err != nil {
		return nil, err
	}

	ret, rec, err := s.compute(history)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Store(*rec); err != nil {
		return nil, err
	}
	return ret, nil
}

// TopPerformers delegates to the repository after checking the handle
func (s *Service) TopPerformers(ctx context.Context, q TopQuery) ([]TopPerformer, error) {
	if err := s.ensureAlive(ctx); err != nil {
		return nil, err
	}
	return s.repo.TopPerformers(q)
}

// Policy returns the horizon table results are computed with
func (s *Service) Policy() PeriodPolicy {
	return s.calc.Policy()
}

func (s *Service) compute(history *History) (*Returns, *CachedReturns, error) {
	if history == nil {
		return nil, nil, ErrNoData
	}

	defer utils.OperationTimer("compute_returns", s.log.With().Str("code", history.Code).Logger())()
	result, err := s.calc.ComputeReturns(history.Points, history.Code)
	if err != nil {
		return nil, nil, err
	}

	rec := &CachedReturns{
		Code:       history.Code,
		SchemeName: history.SchemeName,
		Results:    result,
		UpdatedAt:  s.now().UTC().Truncate(time.Second),
	}
	if s.schemes != nil {
		scheme, err := s.schemes.Get(history.Code)
		if err != nil {
			s.log.Warn().Err(err).Str("code", history.Code).Msg("Failed to look up scheme metadata")
		}
		if scheme != nil {
			rec.Type, rec.Plan, rec.Option = scheme.Type, scheme.Plan, scheme.Option
			if rec.SchemeName == "" {
				rec.SchemeName = scheme.Name
			}
		}
	}

	return &Returns{
		Code:        rec.Code,
		SchemeName:  rec.SchemeName,
		Results:     result,
		Approximate: result.Approximate(),
		UpdatedAt:   rec.UpdatedAt,
	}, rec, nil
}

func (s *Service) ensureAlive(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.EnsureAlive(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func fromCache(c *CachedReturns, stale bool) *Returns {
	return &Returns{
		Code:        c.Code,
		SchemeName:  c.SchemeName,
		Results:     c.Results,
		Approximate: c.Results.Approximate(),
		UpdatedAt:   c.UpdatedAt,
		Cached:      true,
		Stale:       stale,
	}
}
