// Package extract derives canonical trade-execution records from raw
// transaction metadata: the trust-line balance delta attributable to the
// taker, merged with the fill tool's per-execution rows.
package extract

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// Extractor isolates IOU balance changes from transaction effects.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{log: logger}
}

// IOUDelta returns the trust-line balance change favoring the taker.
//
// Trust-line balances are stored from the low side's perspective: a
// negative stored balance means the counterparty owes the low account.
// So when the taker is the low account the effective change is the
// negated raw change; when the taker is the high account the raw change
// is used as is. The counterparty issuer is the account on the opposite
// side. The exported amount is always the absolute magnitude.
//
// The zero sentinel is returned when no entry involves the taker or no
// balance parses; that is a pure-XRP trade, not an error. Only the first
// qualifying entry is used; extra candidates are logged so multi-leg
// trades are at least observable.
func (e *Extractor) IOUDelta(effect *domain.RawTransactionEffect) domain.IOUDelta {
	if effect == nil {
		return domain.IOUDelta{}
	}

	var out domain.IOUDelta
	found := false
	extra := 0

	for _, tl := range effect.TrustLines {
		takerLow := tl.LowAccount == effect.Taker
		takerHigh := tl.HighAccount == effect.Taker
		if !takerLow && !takerHigh {
			continue
		}

		before, err := decimal.NewFromString(tl.BalanceBefore)
		if err != nil {
			continue
		}
		after, err := decimal.NewFromString(tl.BalanceAfter)
		if err != nil {
			continue
		}

		if found {
			extra++
			continue
		}

		raw := after.Sub(before)
		effective := raw
		if takerLow {
			effective = raw.Neg()
		}

		issuer := tl.HighAccount
		if takerHigh {
			issuer = tl.LowAccount
		}

		out = domain.IOUDelta{
			Currency: tl.Currency,
			Issuer:   issuer,
			Amount:   effective.Abs().InexactFloat64(),
		}
		found = true
	}

	if extra > 0 {
		e.log.Warn().
			Str("tx_hash", effect.TxHash).
			Int("extra_trust_lines", extra).
			Msg("transaction touched more than one qualifying trust line, using first")
	}

	return out
}
