package stash

import (
	"strings"

	"github.com/shopspring/decimal"
)

// displayPrecision is the rounding applied when formatting amounts. Stored
// magnitudes are never rounded.
const displayPrecision = 8

// Amount is a monetary value tagged with an optional currency symbol. An
// empty Sym means the journal's native currency.
type Amount struct {
	Sym string
	Mag decimal.Decimal
}

// NewAmount builds an amount from an integer magnitude, mostly useful in
// tests and examples.
func NewAmount(mag int64, sym string) Amount {
	return Amount{Sym: sym, Mag: decimal.NewFromInt(mag)}
}

// Zero returns a zero amount carrying the given symbol.
func Zero(sym string) Amount {
	return Amount{Sym: sym}
}

// Add returns a+b. Both amounts must carry the same currency symbol.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Sym != b.Sym {
		return Amount{}, ErrMismatchedCurrency
	}
	return Amount{Sym: a.Sym, Mag: a.Mag.Add(b.Mag)}, nil
}

// Sub returns a-b. Both amounts must carry the same currency symbol.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Sym != b.Sym {
		return Amount{}, ErrMismatchedCurrency
	}
	return Amount{Sym: a.Sym, Mag: a.Mag.Sub(b.Mag)}, nil
}

// Cmp compares two amounts of the same currency. It returns -1, 0 or 1.
func (a Amount) Cmp(b Amount) (int, error) {
	if a.Sym != b.Sym {
		return 0, ErrMismatchedCurrency
	}
	return a.Mag.Cmp(b.Mag), nil
}

// Neg returns the amount with its magnitude negated.
func (a Amount) Neg() Amount {
	return Amount{Sym: a.Sym, Mag: a.Mag.Neg()}
}

// Abs returns the amount with a non-negative magnitude.
func (a Amount) Abs() Amount {
	return Amount{Sym: a.Sym, Mag: a.Mag.Abs()}
}

// IsZero reports whether the magnitude is zero.
func (a Amount) IsZero() bool {
	return a.Mag.IsZero()
}

// Sign returns -1, 0 or 1 depending on the magnitude's sign.
func (a Amount) Sign() int {
	return a.Mag.Sign()
}

// String renders the amount for display: short symbols (<= 2 runes) prefix
// the magnitude, longer ones trail it.
func (a Amount) String() string {
	mag := a.Mag.Round(displayPrecision).String()
	switch {
	case a.Sym == "":
		return mag
	case len(a.Sym) <= 2:
		return a.Sym + mag
	default:
		return mag + " " + a.Sym
	}
}

// AmountPool tracks one running amount per currency symbol. The zero value is
// ready to use. Insertion order is preserved for display.
type AmountPool struct {
	amounts []Amount
}

// Add folds the amount into the pool's entry for its symbol, creating the
// entry if it does not exist yet.
func (p *AmountPool) Add(a Amount) {
	for i := range p.amounts {
		if p.amounts[i].Sym == a.Sym {
			p.amounts[i].Mag = p.amounts[i].Mag.Add(a.Mag)
			return
		}
	}
	p.amounts = append(p.amounts, a)
}

// Sub folds the negated amount into the pool.
func (p *AmountPool) Sub(a Amount) {
	p.Add(a.Neg())
}

// AddPool folds every amount of the other pool into this one.
func (p *AmountPool) AddPool(other AmountPool) {
	for _, a := range other.amounts {
		p.Add(a)
	}
}

// Only returns the pool's running amount for the given symbol, or a zero
// amount of that symbol if the pool holds none.
func (p AmountPool) Only(sym string) Amount {
	for _, a := range p.amounts {
		if a.Sym == sym {
			return a
		}
	}
	return Zero(sym)
}

// Len returns the number of currencies tracked by the pool.
func (p AmountPool) Len() int {
	return len(p.amounts)
}

// Amounts returns the tracked amounts in insertion order. The slice is a
// copy; mutating it does not affect the pool.
func (p AmountPool) Amounts() []Amount {
	out := make([]Amount, len(p.amounts))
	copy(out, p.amounts)
	return out
}

// IsZero reports whether the pool is empty or every tracked amount has zero
// magnitude.
func (p AmountPool) IsZero() bool {
	for _, a := range p.amounts {
		if !a.IsZero() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the pool.
func (p AmountPool) Clone() AmountPool {
	return AmountPool{amounts: p.Amounts()}
}

// String renders the pool: a single amount inline, multiple amounts on
// indented lines.
func (p AmountPool) String() string {
	switch len(p.amounts) {
	case 0:
		return ""
	case 1:
		return p.amounts[0].String()
	default:
		var sb strings.Builder
		for _, a := range p.amounts {
			sb.WriteString("\n\t")
			sb.WriteString(a.String())
		}
		return sb.String()
	}
}
