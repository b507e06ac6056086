package xrpl

import "encoding/json"

// Amount is an XRPL currency amount. XRP amounts arrive as bare drop
// strings, issued currencies as this object form.
type Amount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// AffectedNode is one ledger entry touched by a transaction, wrapped in
// the metadata under exactly one of CreatedNode/ModifiedNode/DeletedNode.
type AffectedNode struct {
	CreatedNode  *NodeState `json:"CreatedNode,omitempty"`
	ModifiedNode *NodeState `json:"ModifiedNode,omitempty"`
	DeletedNode  *NodeState `json:"DeletedNode,omitempty"`
}

// NodeState carries the before/after field snapshots of one ledger entry.
// Field payloads stay raw until the entry type is known: a RippleState
// Balance is an object while an AccountRoot Balance is a drops string.
type NodeState struct {
	LedgerEntryType string          `json:"LedgerEntryType"`
	LedgerIndex     string          `json:"LedgerIndex"`
	FinalFields     json.RawMessage `json:"FinalFields,omitempty"`
	PreviousFields  json.RawMessage `json:"PreviousFields,omitempty"`
	NewFields       json.RawMessage `json:"NewFields,omitempty"`
}

// RippleStateFields are the fields of a RippleState (trust line) entry.
// LowLimit.Issuer and HighLimit.Issuer are the two account addresses; the
// lexicographically smaller account is the low side.
type RippleStateFields struct {
	Balance   Amount `json:"Balance"`
	LowLimit  Amount `json:"LowLimit"`
	HighLimit Amount `json:"HighLimit"`
}

// TxMeta is the transaction metadata section of a tx response.
type TxMeta struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionIndex  int            `json:"TransactionIndex"`
	TransactionResult string         `json:"TransactionResult"`
}

// TxResult is the result payload of a tx query.
type TxResult struct {
	Hash            string `json:"hash"`
	Account         string `json:"Account"`
	TransactionType string `json:"TransactionType"`
	LedgerIndex     int64  `json:"ledger_index"`
	Validated       bool   `json:"validated"`
	Meta            TxMeta `json:"meta"`
}

// ledgerResult is the result payload of a ledger query.
type ledgerResult struct {
	LedgerHash  string `json:"ledger_hash"`
	LedgerIndex int64  `json:"ledger_index"`
	Ledger      struct {
		ParentHash     string `json:"parent_hash"`
		CloseTimeHuman string `json:"close_time_human"`
	} `json:"ledger"`
}

// BookChangeRow is one currency-pair summary from a book_changes query.
type BookChangeRow struct {
	CurrencyA string `json:"currency_a"`
	CurrencyB string `json:"currency_b"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	VolumeA   string `json:"volume_a"`
	VolumeB   string `json:"volume_b"`
}

// bookChangesResult is the result payload of a book_changes query.
type bookChangesResult struct {
	LedgerHash  string          `json:"ledger_hash"`
	LedgerIndex int64           `json:"ledger_index"`
	Changes     []BookChangeRow `json:"changes"`
}
