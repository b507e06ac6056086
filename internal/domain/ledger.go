package domain

// TrustLineEntry is one bilateral IOU balance entry touched by a
// transaction, with its before/after balance snapshots. The account with
// the lexicographically smaller identifier is conventionally the low side.
type TrustLineEntry struct {
	LowAccount    string // low-side account identifier
	HighAccount   string // high-side account identifier
	Currency      string // IOU currency code
	BalanceBefore string // decimal string, balance before the transaction
	BalanceAfter  string // decimal string, balance after the transaction
}

// RawTransactionEffect holds the state changes of one settled transaction
// that the extractor needs. Transient, never persisted.
type RawTransactionEffect struct {
	TxHash     string
	Taker      string           // acting account
	TrustLines []TrustLineEntry // trust-line entries touched by the transaction
}

// IOUDelta is the trust-line balance change attributable to the acting
// account. The zero value is the "no IOU leg" sentinel: a pure-XRP trade,
// a missing trust line, or an unparseable balance all produce it.
type IOUDelta struct {
	Currency string  // IOU currency code
	Issuer   string  // counterparty on the opposite side of the trust line
	Amount   float64 // absolute magnitude of the effective change
}

// IsZero reports whether the delta is the no-IOU-leg sentinel.
func (d IOUDelta) IsZero() bool {
	return d.Currency == "" && d.Issuer == "" && d.Amount == 0
}

// LedgerHeader identifies one consensus-closed ledger.
type LedgerHeader struct {
	LedgerIndex int64
	LedgerHash  string
	ParentHash  string
	CloseTime   string // close_time_human as reported by the node
}
