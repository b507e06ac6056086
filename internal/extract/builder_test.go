package extract

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// fakeEffectSource serves canned effects per tx hash and fails for
// hashes in the errs set.
type fakeEffectSource struct {
	effects map[string]*domain.RawTransactionEffect
	errs    map[string]struct{}
}

func (f *fakeEffectSource) TransactionEffect(_ context.Context, txHash, taker string) (*domain.RawTransactionEffect, error) {
	if _, bad := f.errs[txHash]; bad {
		return nil, errors.New("node unavailable")
	}
	if e, ok := f.effects[txHash]; ok {
		return e, nil
	}
	return &domain.RawTransactionEffect{TxHash: txHash, Taker: taker}, nil
}

func newTestBuilder(src EffectSource) *Builder {
	return NewBuilder(BuilderOptions{Source: src, Workers: 2, Logger: zerolog.Nop()})
}

func testFill(txHash string, execXRP float64) *domain.Fill {
	return &domain.Fill{
		LedgerIndex:    90000000,
		CloseTime:      time.Date(2025, 10, 19, 8, 59, 20, 0, time.UTC),
		TxHash:         txHash,
		TxType:         domain.TxTypeOfferCreate,
		Taker:          takerAddr,
		ExecXRP:        execXRP,
		Counterparties: []string{otherAddr},
	}
}

func TestBuild_DropsFillsWithoutCounterparties(t *testing.T) {
	b := newTestBuilder(&fakeEffectSource{})

	unfilled := testFill("TX1", 100)
	unfilled.Counterparties = nil

	trades, err := b.Build(context.Background(), "LH", []*domain.Fill{unfilled, testFill("TX2", 50)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].TxHash != "TX2" {
		t.Errorf("TxHash = %q, want TX2", trades[0].TxHash)
	}
}

func TestBuild_DuplicateTxHashFirstWins(t *testing.T) {
	b := newTestBuilder(&fakeEffectSource{})

	first := testFill("TX1", 100)
	second := testFill("TX1", 999)

	trades, err := b.Build(context.Background(), "LH", []*domain.Fill{first, second})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].ExecXRP != 100 {
		t.Errorf("ExecXRP = %v, want the first fill's 100", trades[0].ExecXRP)
	}
}

func TestBuild_FetchErrorDegradesToNoIOULeg(t *testing.T) {
	b := newTestBuilder(&fakeEffectSource{errs: map[string]struct{}{"TX1": {}}})

	trades, err := b.Build(context.Background(), "LH", []*domain.Fill{testFill("TX1", -250)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.IOUCode != "" || tr.IOUAmount != 0 {
		t.Errorf("expected no IOU leg, got code=%q amount=%v", tr.IOUCode, tr.IOUAmount)
	}
	if tr.ExecPrice != 0 {
		t.Errorf("ExecPrice = %v, want 0 when undetermined", tr.ExecPrice)
	}
	if tr.TotalVolumeXRP != 250 {
		t.Errorf("TotalVolumeXRP = %v, want 250 (absolute)", tr.TotalVolumeXRP)
	}
}

func TestBuild_PriceFromDeltaAndExecXRP(t *testing.T) {
	src := &fakeEffectSource{
		effects: map[string]*domain.RawTransactionEffect{
			"TX1": {
				TxHash: "TX1",
				Taker:  takerAddr,
				TrustLines: []domain.TrustLineEntry{
					{
						LowAccount:    takerAddr,
						HighAccount:   otherAddr,
						Currency:      "USD",
						BalanceBefore: "0",
						BalanceAfter:  "40",
					},
				},
			},
		},
	}
	b := newTestBuilder(src)

	trades, err := b.Build(context.Background(), "LH", []*domain.Fill{testFill("TX1", -100)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tr := trades[0]
	if tr.IOUCode != "USD" || tr.IOUIssuer != otherAddr {
		t.Errorf("IOU leg = %s/%s, want USD/%s", tr.IOUCode, tr.IOUIssuer, otherAddr)
	}
	if math.Abs(tr.ExecPrice-2.5) > 1e-9 {
		t.Errorf("ExecPrice = %v, want abs(-100)/40 = 2.5", tr.ExecPrice)
	}
	if tr.LedgerHash != "LH" {
		t.Errorf("LedgerHash = %q, want LH", tr.LedgerHash)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	b := newTestBuilder(&fakeEffectSource{})
	trades, err := b.Build(context.Background(), "LH", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}
}
