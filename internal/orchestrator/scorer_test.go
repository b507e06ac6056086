package orchestrator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/scoring"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/memory"
)

var testNow = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

// bridgeStats matches every classifier signal rule, so the bridge
// discount applies.
func bridgeStats() *domain.TokenStatistics {
	return &domain.TokenStatistics{
		TokenCode:            "AXLUSDC",
		TokenIssuer:          "rIssuer",
		TotalTrades:          200,
		UniqueTakers:         2,
		TotalXRPVolume:       100_000,
		PriceVariancePercent: 0.2,
		SizeVariancePercent:  1.0,
		TradeDensity:         120,
	}
}

func TestBuildRecord_BridgeDiscount(t *testing.T) {
	stats := bridgeStats()
	baseRisk := scoring.RiskScore(stats)
	baseBurst := scoring.BurstScore(stats)

	rec := BuildRecord(stats, testNow)

	if rec.Label != domain.ClassBridge {
		t.Fatalf("Label = %q, want bridge", rec.Label)
	}
	if math.Abs(rec.RiskScore-baseRisk*BridgeDiscount) > 1e-9 {
		t.Errorf("RiskScore = %v, want %v discounted by %v", rec.RiskScore, baseRisk, BridgeDiscount)
	}
	if math.Abs(rec.BurstScore-baseBurst*BridgeDiscount) > 1e-9 {
		t.Errorf("BurstScore = %v, want %v discounted by %v", rec.BurstScore, baseBurst, BridgeDiscount)
	}
	if !rec.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, testNow)
	}
}

func TestBuildRecord_NoDiscountBelowConfidence(t *testing.T) {
	// Three signals give a bridge label at 0.40 confidence, under the
	// 0.6 discount threshold: scores stay undiscounted.
	stats := &domain.TokenStatistics{
		TokenCode:            "GOLD",
		TokenIssuer:          "rIssuer",
		TotalTrades:          5,
		UniqueTakers:         3,
		TotalXRPVolume:       25_000,
		PriceVariancePercent: 10,
		SizeVariancePercent:  50,
		TradeDensity:         2,
	}
	baseRisk := scoring.RiskScore(stats)

	rec := BuildRecord(stats, testNow)

	if rec.Label != domain.ClassBridge {
		t.Fatalf("Label = %q, want bridge", rec.Label)
	}
	if rec.Confidence >= BridgeConfidenceThreshold {
		t.Fatalf("Confidence = %v, expected below threshold", rec.Confidence)
	}
	if rec.RiskScore != baseRisk {
		t.Errorf("RiskScore = %v, want undiscounted %v", rec.RiskScore, baseRisk)
	}
}

func TestBuildRecord_NoDiscountForNonBridge(t *testing.T) {
	stats := &domain.TokenStatistics{
		TokenCode:            "SCAM",
		TokenIssuer:          "rIssuer",
		TotalTrades:          8,
		UniqueTakers:         4,
		TotalXRPVolume:       5_000,
		PriceVariancePercent: 15,
		SizeVariancePercent:  40,
		TradeDensity:         30,
	}
	baseRisk := scoring.RiskScore(stats)
	baseBurst := scoring.BurstScore(stats)

	rec := BuildRecord(stats, testNow)

	if rec.Label != domain.ClassManipulation {
		t.Fatalf("Label = %q, want manipulation", rec.Label)
	}
	if rec.RiskScore != baseRisk || rec.BurstScore != baseBurst {
		t.Errorf("scores changed without a confident bridge label: %v/%v vs %v/%v",
			rec.RiskScore, rec.BurstScore, baseRisk, baseBurst)
	}
}

func TestBuildRecord_WhitelistDominates(t *testing.T) {
	// A whitelisted token scores zero even when it also looks like a
	// confident bridge.
	stats := bridgeStats()
	stats.IsWhitelisted = true
	stats.WhitelistCategory = "stablecoin"

	rec := BuildRecord(stats, testNow)

	if rec.RiskScore != 0 || rec.BurstScore != 0 || rec.LegacyRiskScore != 0 {
		t.Errorf("whitelisted scores = %v/%v/%v, want all zero",
			rec.RiskScore, rec.BurstScore, rec.LegacyRiskScore)
	}
	if !rec.Whitelisted {
		t.Error("Whitelisted flag not carried")
	}
}

// seedTrades inserts n wash-style trades for one token.
func seedTrades(t *testing.T, store *memory.TradeStore, code, issuer string, n int) {
	t.Helper()

	trades := make([]*domain.TradeExecution, 0, n)
	base := time.Date(2025, 10, 19, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		trades = append(trades, &domain.TradeExecution{
			Time:           base.Add(time.Duration(i) * time.Minute),
			LedgerIndex:    int64(90000000 + i),
			LedgerHash:     "LH",
			TxHash:         code + "-" + string(rune('A'+i)),
			TxType:         domain.TxTypeOfferCreate,
			Taker:          "rTaker",
			Counterparties: []string{"rCp"},
			ExecXRP:        -1000,
			IOUCode:        code,
			IOUIssuer:      issuer,
			IOUAmount:      400,
			ExecPrice:      2.5,
			TotalVolumeXRP: 1000,
		})
	}
	if err := store.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}
}

func TestScorerRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	trades := memory.NewTradeStore()
	statsStore := memory.NewTokenStatsStore(trades)
	whitelist := memory.NewWhitelistStore()

	seedTrades(t, trades, "USD", "rIssuerUSD", 10)
	seedTrades(t, trades, "EUR", "rIssuerEUR", 5)

	err := whitelist.Insert(ctx, &domain.WhitelistEntry{
		TokenCode:   "USD",
		TokenIssuer: "rIssuerUSD",
		TokenName:   "Dollar IOU",
		Category:    domain.CategoryStablecoin,
	})
	if err != nil {
		t.Fatalf("seed whitelist: %v", err)
	}

	scorer := NewScorer(ScorerOptions{
		StatsStore:     statsStore,
		WhitelistStore: whitelist,
		Workers:        2,
		Clock:          func() time.Time { return testNow },
		Logger:         zerolog.Nop(),
	})

	result, err := scorer.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.TokensScored != 2 {
		t.Fatalf("TokensScored = %d, want 2", result.TokensScored)
	}
	if result.Whitelisted != 1 {
		t.Errorf("Whitelisted = %d, want 1", result.Whitelisted)
	}

	records, err := statsStore.TopByRisk(ctx, 10)
	if err != nil {
		t.Fatalf("TopByRisk failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(records))
	}

	// Non-whitelisted EUR must outrank the zeroed USD.
	if records[0].Stats.TokenCode != "EUR" {
		t.Errorf("top record = %s, want EUR", records[0].Stats.TokenCode)
	}
	if records[0].RiskScore <= 0 {
		t.Errorf("EUR RiskScore = %v, want > 0", records[0].RiskScore)
	}
	usd := records[1]
	if usd.RiskScore != 0 || !usd.Whitelisted {
		t.Errorf("USD record = risk %v whitelisted %v, want 0/true", usd.RiskScore, usd.Whitelisted)
	}
	if usd.Stats.WhitelistCategory != "stablecoin" {
		t.Errorf("USD category = %q, want stablecoin", usd.Stats.WhitelistCategory)
	}
	if !usd.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want fixed clock %v", usd.UpdatedAt, testNow)
	}
}

func TestScorerRun_ReplaceAllSemantics(t *testing.T) {
	ctx := context.Background()
	trades := memory.NewTradeStore()
	statsStore := memory.NewTokenStatsStore(trades)
	whitelist := memory.NewWhitelistStore()

	seedTrades(t, trades, "USD", "rIssuerUSD", 5)

	scorer := NewScorer(ScorerOptions{
		StatsStore:     statsStore,
		WhitelistStore: whitelist,
		Clock:          func() time.Time { return testNow },
		Logger:         zerolog.Nop(),
	})

	if _, err := scorer.Run(ctx); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := scorer.Run(ctx); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	// Two passes over the same trades must not accumulate records.
	records, err := statsStore.TopByRisk(ctx, 100)
	if err != nil {
		t.Fatalf("TopByRisk failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records after two passes = %d, want 1", len(records))
	}
}
