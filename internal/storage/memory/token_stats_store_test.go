package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

func TestTokenStatsStore_QueryStatistics(t *testing.T) {
	trades := NewTradeStore()
	store := NewTokenStatsStore(trades)
	ctx := context.Background()
	base := time.Date(2025, 10, 19, 8, 0, 0, 0, time.UTC)

	rows := []*domain.TradeExecution{
		{
			Time: base, LedgerIndex: 1, LedgerHash: "L1", TxHash: "T1",
			Taker: "rA", Counterparties: []string{"rX"},
			IOUCode: "USD", IOUIssuer: "rI", IOUAmount: 40,
			ExecPrice: 2.5, TotalVolumeXRP: 100,
		},
		{
			Time: base.Add(30 * time.Minute), LedgerIndex: 2, LedgerHash: "L2", TxHash: "T2",
			Taker: "rA", Counterparties: []string{"rX", "rY"},
			IOUCode: "USD", IOUIssuer: "rI", IOUAmount: 40,
			ExecPrice: 2.5, TotalVolumeXRP: 100,
		},
		{
			Time: base.Add(time.Hour), LedgerIndex: 3, LedgerHash: "L3", TxHash: "T3",
			Taker: "rB", Counterparties: []string{"rX"},
			IOUCode: "USD", IOUIssuer: "rI", IOUAmount: 80,
			ExecPrice: 2.5, TotalVolumeXRP: 200,
		},
		// Below the minimum trade count: must not appear.
		{
			Time: base, LedgerIndex: 1, LedgerHash: "L1", TxHash: "T4",
			Taker: "rA", Counterparties: []string{"rX"},
			IOUCode: "EUR", IOUIssuer: "rI", IOUAmount: 1,
			ExecPrice: 1, TotalVolumeXRP: 1,
		},
		// XRP-only trade: no IOU leg, excluded from aggregation.
		{
			Time: base, LedgerIndex: 1, LedgerHash: "L1", TxHash: "T5",
			Taker: "rA", Counterparties: []string{"rX"},
			TotalVolumeXRP: 5000,
		},
	}
	if err := trades.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stats, err := store.QueryStatistics(ctx)
	if err != nil {
		t.Fatalf("QueryStatistics failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 aggregated token, got %d", len(stats))
	}

	st := stats[0]
	if st.TokenCode != "USD" || st.TokenIssuer != "rI" {
		t.Fatalf("wrong token aggregated: %s/%s", st.TokenCode, st.TokenIssuer)
	}
	if st.TotalTrades != 3 {
		t.Errorf("TotalTrades = %d, want 3", st.TotalTrades)
	}
	if st.UniqueTakers != 2 {
		t.Errorf("UniqueTakers = %d, want 2", st.UniqueTakers)
	}
	if st.UniqueCounterparties != 2 {
		t.Errorf("UniqueCounterparties = %d, want 2", st.UniqueCounterparties)
	}
	if st.LedgerSpan != 3 {
		t.Errorf("LedgerSpan = %d, want 3", st.LedgerSpan)
	}
	if st.TotalXRPVolume != 400 {
		t.Errorf("TotalXRPVolume = %v, want 400", st.TotalXRPVolume)
	}
	if st.TotalTokenVolume != 160 {
		t.Errorf("TotalTokenVolume = %v, want 160", st.TotalTokenVolume)
	}
	if math.Abs(st.AvgPrice-2.5) > 1e-9 || st.PriceStddev != 0 {
		t.Errorf("price aggregate = %v +- %v, want 2.5 +- 0", st.AvgPrice, st.PriceStddev)
	}
	if st.SecondsActive != 3600 {
		t.Errorf("SecondsActive = %d, want 3600", st.SecondsActive)
	}
	if st.DaysActive != 1 {
		t.Errorf("DaysActive = %d, want 1", st.DaysActive)
	}
	// 3 trades over one hour.
	if math.Abs(st.TradeDensity-3) > 1e-9 {
		t.Errorf("TradeDensity = %v, want 3", st.TradeDensity)
	}
	if math.Abs(st.TradesPerAccount-1.5) > 1e-9 {
		t.Errorf("TradesPerAccount = %v, want 1.5", st.TradesPerAccount)
	}
	if st.PriceVariancePercent != 0 {
		t.Errorf("PriceVariancePercent = %v, want 0 for constant price", st.PriceVariancePercent)
	}
	if st.IsWhitelisted || st.WhitelistCategory != "" {
		t.Errorf("whitelist fields must stay unset: %+v", st)
	}
}

func TestTokenStatsStore_SingleLedgerDensityDegenerates(t *testing.T) {
	trades := NewTradeStore()
	store := NewTokenStatsStore(trades)
	ctx := context.Background()
	at := time.Date(2025, 10, 19, 8, 0, 0, 0, time.UTC)

	var rows []*domain.TradeExecution
	for _, tx := range []string{"T1", "T2", "T3"} {
		rows = append(rows, &domain.TradeExecution{
			Time: at, LedgerIndex: 1, LedgerHash: "L1", TxHash: tx,
			Taker: "rA", Counterparties: []string{"rX"},
			IOUCode: "USD", IOUIssuer: "rI", IOUAmount: 1, ExecPrice: 1, TotalVolumeXRP: 1,
		})
	}
	if err := trades.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stats, err := store.QueryStatistics(ctx)
	if err != nil {
		t.Fatalf("QueryStatistics failed: %v", err)
	}
	if stats[0].SecondsActive != 0 {
		t.Fatalf("SecondsActive = %d, want 0", stats[0].SecondsActive)
	}
	if stats[0].TradeDensity != 3 {
		t.Errorf("TradeDensity = %v, want raw trade count for zero span", stats[0].TradeDensity)
	}
}

func TestTokenStatsStore_ReplaceAllSwapsWholeSet(t *testing.T) {
	store := NewTokenStatsStore(NewTradeStore())
	ctx := context.Background()

	rec := func(code string, risk float64) *domain.TokenRiskRecord {
		return &domain.TokenRiskRecord{
			Stats:     domain.TokenStatistics{TokenCode: code, TokenIssuer: "rI"},
			RiskScore: risk,
			Label:     domain.ClassUnknown,
		}
	}

	if err := store.ReplaceAll(ctx, []*domain.TokenRiskRecord{rec("A", 10), rec("B", 90)}); err != nil {
		t.Fatalf("first ReplaceAll failed: %v", err)
	}
	if err := store.ReplaceAll(ctx, []*domain.TokenRiskRecord{rec("C", 50)}); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	records, err := store.TopByRisk(ctx, 10)
	if err != nil {
		t.Fatalf("TopByRisk failed: %v", err)
	}
	if len(records) != 1 || records[0].Stats.TokenCode != "C" {
		t.Errorf("records = %+v, want only C", records)
	}
}

func TestTokenStatsStore_TopByRiskOrderAndLimit(t *testing.T) {
	store := NewTokenStatsStore(NewTradeStore())
	ctx := context.Background()

	records := []*domain.TokenRiskRecord{
		{Stats: domain.TokenStatistics{TokenCode: "LOW"}, RiskScore: 5},
		{Stats: domain.TokenStatistics{TokenCode: "HIGH"}, RiskScore: 95},
		{Stats: domain.TokenStatistics{TokenCode: "MID"}, RiskScore: 50},
	}
	if err := store.ReplaceAll(ctx, records); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	top, err := store.TopByRisk(ctx, 2)
	if err != nil {
		t.Fatalf("TopByRisk failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 records, got %d", len(top))
	}
	if top[0].Stats.TokenCode != "HIGH" || top[1].Stats.TokenCode != "MID" {
		t.Errorf("order = %s, %s; want HIGH, MID", top[0].Stats.TokenCode, top[1].Stats.TokenCode)
	}
}
