package domain

import "time"

// Fill is one settled offer execution as reported by the fill tool,
// one row of its TSV output. Counterparties is already split on commas.
type Fill struct {
	LedgerIndex    int64     // ledger the offer executed in
	CloseTime      time.Time // ledger close time
	TxHash         string    // transaction hash
	TxType         string    // "OfferCreate" | "Payment"
	Taker          string    // account whose offer execution triggered the trade
	PostedGets     string    // posted TakerGets amount (raw)
	PostedPays     string    // posted TakerPays amount (raw)
	ExecXRP        float64   // net XRP amount exchanged (signed)
	Counterparties []string  // accounts on the other side, empty = no execution
}

// TradeExecution is one canonical executed trade per (ledger, transaction).
// Corresponds to the executed_trades table in ClickHouse. Exactly one row
// exists per tx hash within a scan; the first fill encountered wins.
type TradeExecution struct {
	Time           time.Time // ledger close time
	LedgerIndex    int64
	LedgerHash     string
	TxHash         string
	TxType         string
	Taker          string
	Counterparties []string // size >= 1, rows without counterparties are dropped upstream
	PostedGets     string
	PostedPays     string
	ExecXRP        float64 // signed XRP amount exchanged
	IOUCode        string  // empty if no IOU leg resolved
	IOUIssuer      string  // empty if no IOU leg resolved
	IOUAmount      float64 // non-negative magnitude
	ExecPrice      float64 // |ExecXRP| / IOUAmount, 0 if undetermined
	TotalVolumeXRP float64 // abs(ExecXRP), denormalized for aggregation
}

// Transaction type constants as reported by the fill tool.
const (
	TxTypeOfferCreate = "OfferCreate"
	TxTypePayment     = "Payment"
)
