// Package orchestrator coordinates the batch pipeline:
// screening → trade collection → scoring/classification.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/extract"
	"github.com/realgrapedrop/xrp-watchdog/internal/fills"
	"github.com/realgrapedrop/xrp-watchdog/internal/screening"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
	"github.com/realgrapedrop/xrp-watchdog/internal/xrpl"
)

// NodeClient is the slice of the rippled client the collector needs.
type NodeClient interface {
	ClosedLedger(ctx context.Context) (*domain.LedgerHeader, error)
	LedgerByHash(ctx context.Context, ledgerHash string) (*domain.LedgerHeader, error)
	LedgerByIndex(ctx context.Context, index int64) (*domain.LedgerHeader, error)
	BookChanges(ctx context.Context, ledgerHash string) ([]xrpl.BookChangeRow, error)
}

// Collector runs the two collection phases of a batch: screen N ledgers
// for suspicious volume, then collect detailed trades for the flagged
// ledgers that have not been collected yet.
type Collector struct {
	node       NodeClient
	fillSource fills.Source
	builder    *extract.Builder
	screener   *screening.Screener

	trades storage.TradeStore
	books  storage.BookChangeStore
	state  storage.CollectionStateStore

	log zerolog.Logger
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	Node       NodeClient
	FillSource fills.Source
	Builder    *extract.Builder
	Screener   *screening.Screener

	TradeStore      storage.TradeStore
	BookChangeStore storage.BookChangeStore
	StateStore      storage.CollectionStateStore

	Logger zerolog.Logger
}

// NewCollector creates a Collector.
func NewCollector(opts CollectorOptions) *Collector {
	return &Collector{
		node:       opts.Node,
		fillSource: opts.FillSource,
		builder:    opts.Builder,
		screener:   opts.Screener,
		trades:     opts.TradeStore,
		books:      opts.BookChangeStore,
		state:      opts.StateStore,
		log:        opts.Logger,
	}
}

// CollectResult summarizes one collection batch.
type CollectResult struct {
	RunID             string
	LedgersScreened   int
	BookChangesStored int
	SuspiciousLedgers int
	TradesCollected   int
	Errors            []string
}

// Run executes one collection batch of ledgerCount ledgers, walking
// parent hashes backwards from startLedger (latest closed when 0).
// Per-ledger failures are recorded and skipped; the batch only fails
// when the node is unreachable outright.
func (c *Collector) Run(ctx context.Context, ledgerCount int, startLedger int64) (*CollectResult, error) {
	result := &CollectResult{RunID: uuid.NewString()}

	c.log.Info().
		Str("run_id", result.RunID).
		Int("ledger_count", ledgerCount).
		Msg("collection batch starting")

	// Phase 1: screen ledgers for suspicious volume.
	if err := c.screenLedgers(ctx, result, ledgerCount, startLedger); err != nil {
		c.recordState(ctx, result.RunID, "book_screener", nil, domain.CollectorError, err.Error())
		return nil, fmt.Errorf("phase 1 (screening) failed: %w", err)
	}
	c.recordState(ctx, result.RunID, "book_screener", nil, domain.CollectorRunning, "")

	// Phase 2: detailed trade collection for flagged ledgers.
	c.collectSuspicious(ctx, result, ledgerCount)

	c.log.Info().
		Str("run_id", result.RunID).
		Int("ledgers_screened", result.LedgersScreened).
		Int("suspicious", result.SuspiciousLedgers).
		Int("trades", result.TradesCollected).
		Int("errors", len(result.Errors)).
		Msg("collection batch complete")

	return result, nil
}

// screenLedgers walks count ledgers backwards inserting screened book
// changes. The walk stops early on a node error mid-chain, leaving the
// already-screened ledgers in place.
func (c *Collector) screenLedgers(ctx context.Context, result *CollectResult, count int, startLedger int64) error {
	var current *domain.LedgerHeader
	var err error
	if startLedger > 0 {
		current, err = c.node.LedgerByIndex(ctx, startLedger)
	} else {
		current, err = c.node.ClosedLedger(ctx)
	}
	if err != nil {
		return fmt.Errorf("resolve starting ledger: %w", err)
	}

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rows, err := c.node.BookChanges(ctx, current.LedgerHash)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("book_changes %s: %v", current.LedgerHash, err))
			c.log.Warn().Int64("ledger_index", current.LedgerIndex).Err(err).Msg("book_changes failed, stopping walk")
			break
		}

		changes := c.screener.Screen(current, rows)
		if len(changes) > 0 {
			if err := c.books.InsertBulk(ctx, changes); err != nil {
				return fmt.Errorf("insert book changes for ledger %d: %w", current.LedgerIndex, err)
			}
			result.BookChangesStored += len(changes)
		}
		result.LedgersScreened++

		parent, err := c.node.LedgerByHash(ctx, current.ParentHash)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("parent ledger %s: %v", current.ParentHash, err))
			break
		}
		current = parent
	}

	return nil
}

// collectSuspicious collects detailed trades for flagged ledgers that
// have no executed_trades rows yet.
func (c *Collector) collectSuspicious(ctx context.Context, result *CollectResult, limit int) {
	suspicious, err := c.books.SuspiciousLedgers(ctx, limit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("suspicious ledgers: %v", err))
		return
	}

	for _, header := range suspicious {
		collected, err := c.trades.HasLedger(ctx, header.LedgerHash)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("has ledger %s: %v", header.LedgerHash, err))
			continue
		}
		if collected {
			continue
		}
		result.SuspiciousLedgers++

		n, err := c.collectLedger(ctx, header)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collect ledger %d: %v", header.LedgerIndex, err))
			c.recordState(ctx, result.RunID, "trade_collector", &header, domain.CollectorError, err.Error())
			continue
		}
		result.TradesCollected += n
		c.recordState(ctx, result.RunID, "trade_collector", &header, domain.CollectorRunning, "")
	}
}

// collectLedger runs the fill tool for one ledger and stores the built
// trade executions.
func (c *Collector) collectLedger(ctx context.Context, header domain.LedgerHeader) (int, error) {
	fillRows, err := c.fillSource.Fills(ctx, header.LedgerHash)
	if err != nil {
		return 0, fmt.Errorf("fetch fills: %w", err)
	}

	trades, err := c.builder.Build(ctx, header.LedgerHash, fillRows)
	if err != nil {
		return 0, fmt.Errorf("build trades: %w", err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	if err := c.trades.InsertBulk(ctx, trades); err != nil {
		return 0, fmt.Errorf("insert trades: %w", err)
	}

	withIOU := 0
	for _, t := range trades {
		if t.IOUCode != "" {
			withIOU++
		}
	}
	c.log.Info().
		Int64("ledger_index", header.LedgerIndex).
		Int("trades", len(trades)).
		Int("with_iou", withIOU).
		Msg("ledger collected")

	return len(trades), nil
}

// recordState appends a collection_state row; state bookkeeping failures
// are logged, never fatal.
func (c *Collector) recordState(ctx context.Context, runID, collector string, header *domain.LedgerHeader, status domain.CollectorStatus, errMsg string) {
	s := &domain.CollectionState{
		RunID:         runID,
		CollectorName: collector,
		LastUpdate:    time.Now().UTC(),
		Status:        status,
		ErrorMessage:  errMsg,
	}
	if header != nil {
		s.LastLedgerHash = header.LedgerHash
		s.LastLedgerIndex = header.LedgerIndex
	}
	if err := c.state.Append(ctx, s); err != nil {
		c.log.Warn().Err(err).Str("collector", collector).Msg("could not record collection state")
	}
}
