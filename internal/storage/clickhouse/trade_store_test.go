package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	chstore "github.com/realgrapedrop/xrp-watchdog/internal/storage/clickhouse"
)

func testTrade(txHash, ledgerHash, code string, at time.Time) *domain.TradeExecution {
	return &domain.TradeExecution{
		Time:           at,
		LedgerIndex:    90000001,
		LedgerHash:     ledgerHash,
		TxHash:         txHash,
		TxType:         domain.TxTypeOfferCreate,
		Taker:          "rTaker1111111111111111111111111111",
		Counterparties: []string{"rCounterparty111111111111111111111"},
		PostedGets:     "100",
		PostedPays:     "40/USD",
		ExecXRP:        -100,
		IOUCode:        code,
		IOUIssuer:      "rIssuer111111111111111111111111111",
		IOUAmount:      40,
		ExecPrice:      2.5,
		TotalVolumeXRP: 100,
	}
}

func TestTradeStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewTradeStore(conn)
	base := time.Date(2025, 10, 19, 8, 0, 0, 0, time.UTC)

	err := store.InsertBulk(ctx, []*domain.TradeExecution{
		testTrade("TX2", "LH1", "USD", base.Add(time.Minute)),
		testTrade("TX1", "LH1", "USD", base),
		testTrade("TX3", "LH2", "EUR", base),
	})
	require.NoError(t, err)

	has, err := store.HasLedger(ctx, "LH1")
	require.NoError(t, err)
	require.True(t, has)

	has, err = store.HasLedger(ctx, "LH9")
	require.NoError(t, err)
	require.False(t, has)

	trades, err := store.GetByToken(ctx, "USD", "rIssuer111111111111111111111111111")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	require.Equal(t, "TX1", trades[0].TxHash)
	require.Equal(t, "TX2", trades[1].TxHash)

	got := trades[0]
	require.Equal(t, base, got.Time.UTC())
	require.Equal(t, int64(90000001), got.LedgerIndex)
	require.Equal(t, []string{"rCounterparty111111111111111111111"}, got.Counterparties)
	require.Equal(t, -100.0, got.ExecXRP)
	require.Equal(t, 2.5, got.ExecPrice)
}

func TestTradeStore_EmptyBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTradeStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}
