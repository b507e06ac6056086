package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// TokenStatsStore is an in-memory implementation of storage.TokenStatsStore.
// It aggregates over an in-memory TradeStore, mirroring the server-side
// aggregation the analytics backend runs over executed_trades.
type TokenStatsStore struct {
	trades *TradeStore

	mu      sync.RWMutex
	records []*domain.TokenRiskRecord
}

// NewTokenStatsStore creates a new in-memory token stats store reading
// trades from the given store.
func NewTokenStatsStore(trades *TradeStore) *TokenStatsStore {
	return &TokenStatsStore{trades: trades}
}

// Compile-time interface check.
var _ storage.TokenStatsStore = (*TokenStatsStore)(nil)

// QueryStatistics aggregates stored trades into one row per (code,
// issuer) pair with at least domain.MinTradesForStats trades. Whitelist
// fields are left unset.
func (s *TokenStatsStore) QueryStatistics(ctx context.Context) ([]*domain.TokenStatistics, error) {
	trades, err := s.trades.All(ctx)
	if err != nil {
		return nil, err
	}

	type group struct {
		trades []*domain.TradeExecution
	}
	groups := make(map[[2]string]*group)
	for _, t := range trades {
		if t.IOUCode == "" {
			continue
		}
		key := [2]string{t.IOUCode, t.IOUIssuer}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.trades = append(g.trades, t)
	}

	var stats []*domain.TokenStatistics
	for key, g := range groups {
		if len(g.trades) < domain.MinTradesForStats {
			continue
		}
		stats = append(stats, aggregate(key[0], key[1], g.trades))
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalXRPVolume > stats[j].TotalXRPVolume
	})

	return stats, nil
}

// aggregate computes one statistics row over a token's trades.
func aggregate(code, issuer string, trades []*domain.TradeExecution) *domain.TokenStatistics {
	st := &domain.TokenStatistics{
		TokenCode:   code,
		TokenIssuer: issuer,
		TotalTrades: int64(len(trades)),
	}

	takers := make(map[string]struct{})
	counterparties := make(map[string]struct{})
	ledgers := make(map[string]struct{})
	days := make(map[string]struct{})

	var prices, sizes []float64
	st.FirstSeen = trades[0].Time
	st.LastSeen = trades[0].Time

	for _, t := range trades {
		takers[t.Taker] = struct{}{}
		for _, cp := range t.Counterparties {
			counterparties[cp] = struct{}{}
		}
		ledgers[t.LedgerHash] = struct{}{}
		days[t.Time.UTC().Format("2006-01-02")] = struct{}{}

		st.TotalXRPVolume += t.TotalVolumeXRP
		st.TotalTokenVolume += t.IOUAmount
		prices = append(prices, t.ExecPrice)
		sizes = append(sizes, t.TotalVolumeXRP)

		if t.Time.Before(st.FirstSeen) {
			st.FirstSeen = t.Time
		}
		if t.Time.After(st.LastSeen) {
			st.LastSeen = t.Time
		}
	}

	st.UniqueTakers = int64(len(takers))
	st.UniqueCounterparties = int64(len(counterparties))
	st.LedgerSpan = int64(len(ledgers))
	st.DaysActive = int64(len(days))
	st.SecondsActive = int64(st.LastSeen.Sub(st.FirstSeen).Seconds())
	st.AvgPrice, st.PriceStddev = meanStddev(prices)
	st.AvgTradeXRP, st.TradeSizeStddev = meanStddev(sizes)
	st.DeriveRatios()

	return st
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / float64(len(values)))
}

// ReplaceAll swaps the whole record set under one lock.
func (s *TokenStatsStore) ReplaceAll(_ context.Context, records []*domain.TokenRiskRecord) error {
	next := make([]*domain.TokenRiskRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			return storage.ErrInvalidInput
		}
		copy := *r
		next = append(next, &copy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	return nil
}

// TopByRisk returns up to limit records ordered by risk score descending.
func (s *TokenStatsStore) TopByRisk(_ context.Context, limit int) ([]*domain.TokenRiskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRiskRecord, 0, len(s.records))
	for _, r := range s.records {
		copy := *r
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return result[i].Stats.TotalXRPVolume > result[j].Stats.TotalXRPVolume
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
