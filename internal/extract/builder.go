package extract

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// DefaultFetchWorkers bounds concurrent metadata fetches per ledger.
const DefaultFetchWorkers = 4

// EffectSource fetches one transaction's state changes on demand.
// *xrpl.Client satisfies it.
type EffectSource interface {
	TransactionEffect(ctx context.Context, txHash, taker string) (*domain.RawTransactionEffect, error)
}

// Builder merges fill rows with extracted IOU deltas into canonical
// TradeExecution records, one per unique transaction hash.
type Builder struct {
	source    EffectSource
	extractor *Extractor
	workers   int
	log       zerolog.Logger
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	Source  EffectSource
	Workers int // concurrent metadata fetches, DefaultFetchWorkers if 0
	Logger  zerolog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts BuilderOptions) *Builder {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	return &Builder{
		source:    opts.Source,
		extractor: NewExtractor(opts.Logger),
		workers:   workers,
		log:       opts.Logger,
	}
}

// Build turns one ledger's fills into trade executions.
//
// Fills without counterparties indicate a cancelled or unfilled offer and
// are dropped. Fills repeating a tx hash already seen in this batch are
// dropped silently, so re-scans are idempotent; the first occurrence wins.
// Dedup happens in a single pass before fetches fan out, so the seen-set
// needs no locking.
//
// Metadata fetch failures degrade the affected trade to the no-IOU
// sentinel rather than failing the batch. Output order is unspecified.
func (b *Builder) Build(ctx context.Context, ledgerHash string, fills []*domain.Fill) ([]*domain.TradeExecution, error) {
	seen := make(map[string]struct{}, len(fills))
	retained := make([]*domain.Fill, 0, len(fills))

	for _, f := range fills {
		if len(f.Counterparties) == 0 {
			continue
		}
		if _, dup := seen[f.TxHash]; dup {
			continue
		}
		seen[f.TxHash] = struct{}{}
		retained = append(retained, f)
	}

	trades := make([]*domain.TradeExecution, len(retained))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, fill := range retained {
		g.Go(func() error {
			delta := b.fetchDelta(gctx, fill)
			trades[i] = buildTrade(ledgerHash, fill, delta)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trades, nil
}

// fetchDelta fetches the transaction effect and extracts the IOU leg.
// Any fetch error yields the zero sentinel.
func (b *Builder) fetchDelta(ctx context.Context, fill *domain.Fill) domain.IOUDelta {
	effect, err := b.source.TransactionEffect(ctx, fill.TxHash, fill.Taker)
	if err != nil {
		b.log.Warn().
			Str("tx_hash", fill.TxHash).
			Err(err).
			Msg("could not fetch transaction metadata, recording trade without IOU leg")
		return domain.IOUDelta{}
	}
	return b.extractor.IOUDelta(effect)
}

// buildTrade assembles the canonical record for one retained fill.
func buildTrade(ledgerHash string, fill *domain.Fill, delta domain.IOUDelta) *domain.TradeExecution {
	price := 0.0
	if delta.Amount > 0 && fill.ExecXRP != 0 {
		price = math.Abs(fill.ExecXRP) / delta.Amount
	}

	return &domain.TradeExecution{
		Time:           fill.CloseTime,
		LedgerIndex:    fill.LedgerIndex,
		LedgerHash:     ledgerHash,
		TxHash:         fill.TxHash,
		TxType:         fill.TxType,
		Taker:          fill.Taker,
		Counterparties: fill.Counterparties,
		PostedGets:     fill.PostedGets,
		PostedPays:     fill.PostedPays,
		ExecXRP:        fill.ExecXRP,
		IOUCode:        delta.Currency,
		IOUIssuer:      delta.Issuer,
		IOUAmount:      delta.Amount,
		ExecPrice:      price,
		TotalVolumeXRP: math.Abs(fill.ExecXRP),
	}
}
