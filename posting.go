package stash

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostKind tags a posting's cost assertion.
type CostKind int

const (
	// UnitCost is the `@` form: price per unit in another currency.
	UnitCost CostKind = iota
	// TotalCost is the `=` form: total price in another currency.
	TotalCost
)

// Cost is a posting's cost assertion, used to resolve a foreign-currency
// amount into another currency (usually the native one).
type Cost struct {
	Kind   CostKind
	Amount Amount
}

func (c Cost) String() string {
	if c.Kind == TotalCost {
		return "= " + c.Amount.String()
	}
	return "@ " + c.Amount.String()
}

// Posting is one leg of an entry. A posting with a non-empty Envelope name
// routes money into or out of that envelope rather than changing the
// account's real value. A nil Amount marks a blank posting whose value is
// inferred so the entry balances to zero; envelope postings always carry an
// amount.
type Posting struct {
	Account          string
	Amount           *Amount
	Cost             *Cost
	BalanceAssertion *Amount
	Envelope         string
}

// NewPosting returns a classic posting for an account. amount may be nil for
// a blank posting.
func NewPosting(account string, amount *Amount) Posting {
	return Posting{Account: account, Amount: amount}
}

// NewEnvelopePosting returns a posting addressed to an envelope of an
// account.
func NewEnvelopePosting(account, envelope string, amount Amount) Posting {
	return Posting{Account: account, Envelope: envelope, Amount: &amount}
}

// IsEnvelope reports whether the posting targets an envelope.
func (p *Posting) IsEnvelope() bool {
	return p.Envelope != ""
}

// IsBlank reports whether the posting's amount must be inferred.
func (p *Posting) IsBlank() bool {
	return p.Amount == nil
}

// NativeValue resolves the posting's worth in the native currency. An amount
// already in the native currency is its own native value; otherwise a
// native-currency cost assertion provides the conversion. The second return
// value is false when no conversion is available. Envelope and blank postings
// have no native value.
func (p *Posting) NativeValue() (decimal.Decimal, bool) {
	if p.IsEnvelope() || p.Amount == nil {
		return decimal.Zero, false
	}
	if p.Amount.Sym == "" {
		return p.Amount.Mag, true
	}
	if p.Cost == nil || p.Cost.Amount.Sym != "" {
		return decimal.Zero, false
	}
	switch p.Cost.Kind {
	case TotalCost:
		return p.Cost.Amount.Mag, true
	case UnitCost:
		return p.Amount.Mag.Mul(p.Cost.Amount.Mag), true
	}
	return decimal.Zero, false
}

// String renders the posting in its journal form.
func (p *Posting) String() string {
	if p.IsEnvelope() {
		prelude := fmt.Sprintf("envelope %s %s", p.Account, p.Envelope)
		return fmt.Sprintf("%-50s %s", prelude, p.Amount.String())
	}

	postlude := ""
	if p.Amount != nil {
		postlude = p.Amount.String()
	}
	if p.Cost != nil {
		postlude += " " + p.Cost.String()
	}
	if p.BalanceAssertion != nil {
		postlude += " ! " + p.BalanceAssertion.String()
	}
	return fmt.Sprintf("%-50s %s", p.Account, postlude)
}
