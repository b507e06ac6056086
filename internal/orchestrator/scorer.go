package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/realgrapedrop/xrp-watchdog/internal/classify"
	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/scoring"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// Bridge discount parameters. A confident bridge classification discounts
// risk and burst scores; it never zeroes them.
const (
	BridgeConfidenceThreshold = 0.6
	BridgeDiscount            = 0.3
)

// Scorer runs one scoring pass: aggregate statistics in, a fully
// replaced token_stats table out.
type Scorer struct {
	stats     storage.TokenStatsStore
	whitelist storage.WhitelistStore

	workers int
	now     func() time.Time
	log     zerolog.Logger
}

// ScorerOptions configures a Scorer.
type ScorerOptions struct {
	StatsStore     storage.TokenStatsStore
	WhitelistStore storage.WhitelistStore

	// Workers bounds per-token scoring concurrency. Defaults to NumCPU.
	Workers int
	// Clock overrides the UpdatedAt timestamp source, for tests.
	Clock func() time.Time

	Logger zerolog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(opts ScorerOptions) *Scorer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Scorer{
		stats:     opts.StatsStore,
		whitelist: opts.WhitelistStore,
		workers:   workers,
		now:       clock,
		log:       opts.Logger,
	}
}

// ScoreResult summarizes one scoring pass.
type ScoreResult struct {
	TokensScored int
	Whitelisted  int
	Bridges      int
	Manipulation int
}

// Run executes one full scoring pass. Scoring is pure per token, so
// tokens are scored concurrently into a pre-sized slice; the pass
// publishes all records in one atomic replace at the end.
func (s *Scorer) Run(ctx context.Context) (*ScoreResult, error) {
	started := s.now()

	rows, err := s.stats.QueryStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("query token statistics: %w", err)
	}
	if len(rows) == 0 {
		s.log.Info().Msg("no tokens meet the minimum trade count, nothing to score")
		return &ScoreResult{}, nil
	}

	whitelisted, err := s.whitelistIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whitelist: %w", err)
	}

	records := make([]*domain.TokenRiskRecord, len(rows))
	updatedAt := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, row := range rows {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if entry, ok := whitelisted[tokenKey(row.TokenCode, row.TokenIssuer)]; ok {
				row.IsWhitelisted = true
				row.WhitelistCategory = string(entry.Category)
			} else {
				row.WhitelistCategory = "none"
			}
			records[i] = BuildRecord(row, updatedAt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.stats.ReplaceAll(ctx, records); err != nil {
		return nil, fmt.Errorf("publish scored records: %w", err)
	}

	result := &ScoreResult{TokensScored: len(records)}
	for _, rec := range records {
		if rec.Whitelisted {
			result.Whitelisted++
		}
		switch rec.Label {
		case domain.ClassBridge:
			result.Bridges++
		case domain.ClassManipulation:
			result.Manipulation++
		}
	}

	s.log.Info().
		Int("tokens", result.TokensScored).
		Int("whitelisted", result.Whitelisted).
		Int("bridges", result.Bridges).
		Int("manipulation", result.Manipulation).
		Dur("elapsed", s.now().Sub(started)).
		Msg("scoring pass complete")

	return result, nil
}

// BuildRecord scores and classifies one token. The whitelist flag must
// already be applied to stats: a whitelisted token gets zero scores no
// matter what it was classified as, the bridge discount only touches
// non-whitelisted tokens.
func BuildRecord(stats *domain.TokenStatistics, updatedAt time.Time) *domain.TokenRiskRecord {
	risk := scoring.RiskScore(stats)
	burst := scoring.BurstScore(stats)
	cls := classify.Classify(stats)

	if !stats.IsWhitelisted && cls.Label == domain.ClassBridge && cls.Confidence >= BridgeConfidenceThreshold {
		risk *= BridgeDiscount
		burst *= BridgeDiscount
	}

	return &domain.TokenRiskRecord{
		Stats:           *stats,
		RiskScore:       risk,
		LegacyRiskScore: scoring.LegacyRiskScore(stats),
		BurstScore:      burst,
		Label:           cls.Label,
		Confidence:      cls.Confidence,
		Whitelisted:     stats.IsWhitelisted,
		UpdatedAt:       updatedAt,
	}
}

func (s *Scorer) whitelistIndex(ctx context.Context) (map[string]*domain.WhitelistEntry, error) {
	entries, err := s.whitelist.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*domain.WhitelistEntry, len(entries))
	for _, e := range entries {
		index[tokenKey(e.TokenCode, e.TokenIssuer)] = e
	}
	return index, nil
}

func tokenKey(code, issuer string) string {
	return code + "|" + issuer
}
