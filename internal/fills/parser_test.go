package fills

import (
	"strings"
	"testing"
	"time"
)

const header = "ledger_index\tclose_time\ttx_hash\ttx_type\ttaker\tposted_gets\tposted_pays\texec_xrp\tcounterparties\n"

func TestParse_SingleRow(t *testing.T) {
	input := header +
		"90000000\t2025-Oct-19 08:59:20.000000000 UTC\tABCD\tOfferCreate\trTaker\t100/USD\t250000000\t-250.5\trCp1,rCp2\n"

	fills, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}

	f := fills[0]
	if f.LedgerIndex != 90000000 {
		t.Errorf("LedgerIndex = %d, want 90000000", f.LedgerIndex)
	}
	want := time.Date(2025, time.October, 19, 8, 59, 20, 0, time.UTC)
	if !f.CloseTime.Equal(want) {
		t.Errorf("CloseTime = %v, want %v", f.CloseTime, want)
	}
	if f.TxHash != "ABCD" || f.TxType != "OfferCreate" || f.Taker != "rTaker" {
		t.Errorf("identity fields mismatch: %+v", f)
	}
	if f.ExecXRP != -250.5 {
		t.Errorf("ExecXRP = %v, want -250.5", f.ExecXRP)
	}
	if len(f.Counterparties) != 2 || f.Counterparties[0] != "rCp1" || f.Counterparties[1] != "rCp2" {
		t.Errorf("Counterparties = %v, want [rCp1 rCp2]", f.Counterparties)
	}
}

func TestParse_EmptyCounterparties(t *testing.T) {
	input := header +
		"90000000\t2025-Oct-19 08:59:20.000000000 UTC\tABCD\tOfferCreate\trTaker\t100/USD\t250000000\t0\t\n"

	fills, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fills[0].Counterparties) != 0 {
		t.Errorf("Counterparties = %v, want empty", fills[0].Counterparties)
	}
}

func TestParse_MalformedNumbersDegradeToZero(t *testing.T) {
	input := header +
		"bogus\tnot a time\tABCD\tPayment\trTaker\tx\ty\tnot-a-float\trCp1\n"

	fills, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	f := fills[0]
	if f.LedgerIndex != 0 || f.ExecXRP != 0 {
		t.Errorf("numeric fields should degrade to zero: %+v", f)
	}
	if !f.CloseTime.IsZero() {
		t.Errorf("CloseTime = %v, want zero time", f.CloseTime)
	}
}

func TestParse_WrongHeader(t *testing.T) {
	input := "ledger_index\tclose_time\thash\ttx_type\ttaker\tposted_gets\tposted_pays\texec_xrp\tcounterparties\n"

	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for renamed column")
	}
}

func TestParse_WrongColumnCount(t *testing.T) {
	input := header + "90000000\tABCD\n"

	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	fills, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fills) != 0 {
		t.Errorf("expected no fills, got %d", len(fills))
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	fills, err := Parse(strings.NewReader(header))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fills) != 0 {
		t.Errorf("expected no fills, got %d", len(fills))
	}
}
