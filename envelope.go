package stash

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeKind partitions envelopes into recurring expense buckets and
// savings goals.
type EnvelopeKind int

const (
	// Expense envelopes cover recurring spending such as groceries or rent.
	Expense EnvelopeKind = iota
	// Goal envelopes save toward a one-off target.
	Goal
)

// ParseEnvelopeKind maps the journal keywords `expense` and `goal`.
func ParseEnvelopeKind(s string) (EnvelopeKind, error) {
	switch strings.TrimSpace(s) {
	case "expense":
		return Expense, nil
	case "goal":
		return Goal, nil
	}
	return 0, newParseError(
		"this envelope type doesn't exist; use either `expense` or `goal`", s)
}

func (k EnvelopeKind) String() string {
	if k == Goal {
		return "goal"
	}
	return "expense"
}

// FundingMethod is the policy for automatic transfers into an envelope.
type FundingMethod int

const (
	// Manual envelopes are only ever funded by explicit envelope postings.
	Manual FundingMethod = iota
	// Conservative spreads the remaining shortfall evenly over the days left
	// until the due date.
	Conservative
	// Aggressive moves as much as possible as soon as possible.
	Aggressive
)

// ParseFundingMethod maps the journal keywords for funding methods.
func ParseFundingMethod(s string) (FundingMethod, error) {
	switch strings.TrimSpace(s) {
	case "manual":
		return Manual, nil
	case "conservative":
		return Conservative, nil
	case "aggressive":
		return Aggressive, nil
	}
	return 0, newParseError("this funding method doesn't exist", s)
}

func (m FundingMethod) String() string {
	switch m {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	}
	return "manual"
}

// Envelope is a budget bucket attached to an account: a target amount, a
// due-date policy, and two running balances. nowAmount holds money committed
// for the current period, nextAmount money committed for the period after.
// Both always carry the target's currency.
//
// The parent account is stored by name and resolved through the ledger's
// account map, so envelopes never hold a reference back into their account.
type Envelope struct {
	Name    string
	Kind    EnvelopeKind
	Target  Amount
	Freq    Frequency
	Funding FundingMethod

	parentAccount string
	autoAccounts  map[string]struct{}

	starting    time.Time
	hasStarting bool

	nowAmount  Amount
	nextAmount Amount
	lastTxDate time.Time
}

// NewEnvelope builds an envelope for the given parent account. The running
// balances start at zero in the target's currency.
func NewEnvelope(name string, kind EnvelopeKind, parentAccount string, target Amount, freq Frequency, funding FundingMethod) *Envelope {
	return &Envelope{
		Name:          name,
		Kind:          kind,
		Target:        target,
		Freq:          freq,
		Funding:       funding,
		parentAccount: parentAccount,
		autoAccounts:  make(map[string]struct{}),
		nowAmount:     Zero(target.Sym),
		nextAmount:    Zero(target.Sym),
	}
}

// SetStartingDate overrides the envelope's first due date: the envelope is
// never considered due before this date.
func (e *Envelope) SetStartingDate(d time.Time) {
	e.starting = Day(d)
	e.hasStarting = true
}

// AddAutoAccount registers a companion account. Transactions between the
// parent account and an auto account drive automatic envelope funding.
func (e *Envelope) AddAutoAccount(name string) {
	e.autoAccounts[name] = struct{}{}
}

// AutoAccounts returns the registered companion account names.
func (e *Envelope) AutoAccounts() []string {
	out := make([]string, 0, len(e.autoAccounts))
	for name := range e.autoAccounts {
		out = append(out, name)
	}
	return out
}

// ParentAccount returns the name of the account owning this envelope.
func (e *Envelope) ParentAccount() string {
	return e.parentAccount
}

// NowAmount returns the balance committed for the current period.
func (e *Envelope) NowAmount() Amount {
	return e.nowAmount
}

// NextAmount returns the balance committed for the next period.
func (e *Envelope) NextAmount() Amount {
	return e.nextAmount
}

// NextDueDate returns the envelope's next due date relative to today. A
// starting-date override pushes the due date forward: the envelope is due no
// earlier than its starting date.
func (e *Envelope) NextDueDate(today time.Time) (time.Time, bool) {
	next, ok := e.Freq.NextDueDate(today)
	if !e.hasStarting {
		return next, ok
	}
	if !ok {
		return e.starting, true
	}
	if e.starting.After(next) {
		return e.starting, true
	}
	return next, true
}

// CompareDue orders envelopes by next due date ascending; envelopes without
// a due date sort last, and equal due dates fall back to the name so the
// fill traversal is deterministic. This is a traversal order, not an
// equality relation.
func (e *Envelope) CompareDue(other *Envelope, today time.Time) int {
	ed, eok := e.NextDueDate(today)
	od, ook := other.NextDueDate(today)
	switch {
	case !eok && !ook:
		return strings.Compare(e.Name, other.Name)
	case !eok:
		return 1
	case !ook:
		return -1
	case ed.Before(od):
		return -1
	case ed.After(od):
		return 1
	}
	return strings.Compare(e.Name, other.Name)
}

// ProcessEntry applies one entry to the envelope. Entries carrying explicit
// envelope postings are applied manually; otherwise the envelope attempts to
// infer a transfer from postings on its parent account and its auto
// accounts. today drives the period boundary and must come from the injected
// clock.
func (e *Envelope) ProcessEntry(entry *Entry, today time.Time) error {
	if entry.HasEnvelopePosting() {
		return e.processManualPostings(entry, today)
	}
	return e.infer(entry, today)
}

func (e *Envelope) processManualPostings(entry *Entry, today time.Time) error {
	for _, p := range entry.Postings() {
		if !p.IsEnvelope() || p.Account != e.parentAccount || p.Envelope != e.Name {
			continue
		}
		if p.Amount.Sym != e.Target.Sym {
			return newProcessingError(
				fmt.Sprintf("an envelope posting for `%s` in `%s` uses a currency that doesn't match the envelope's",
					e.Name, e.parentAccount),
				entry.String())
		}
		e.applyAmount(*p.Amount, entry.Date, today)
	}
	return nil
}

// infer moves money automatically when an entry touches both the envelope's
// parent account and at least one of its auto accounts. The amount moved is
// the smaller of the two sides, signed by the parent side.
func (e *Envelope) infer(entry *Entry, today time.Time) error {
	parentCount, autoCount := 0, 0
	for _, p := range entry.Postings() {
		if p.Account == e.parentAccount {
			parentCount++
		} else if _, ok := e.autoAccounts[p.Account]; ok {
			autoCount++
		}
	}
	// nothing to infer from; that's fine
	if parentCount < 1 || autoCount < 1 {
		return nil
	}

	parentSum := decimal.Zero
	autoSum := decimal.Zero
	for _, p := range entry.Postings() {
		onParent := p.Account == e.parentAccount
		_, onAuto := e.autoAccounts[p.Account]
		if !onParent && !onAuto {
			continue
		}

		mag, err := e.contribution(&p, entry)
		if err != nil {
			return err
		}
		if onParent {
			parentSum = parentSum.Add(mag)
		} else {
			autoSum = autoSum.Add(mag)
		}
	}

	moved := decimal.Min(autoSum, parentSum.Abs())
	if moved.IsZero() {
		return nil
	}
	if parentSum.Sign() < 0 {
		moved = moved.Neg()
	}
	e.applyAmount(Amount{Sym: e.Target.Sym, Mag: moved}, entry.Date, today)
	return nil
}

// contribution resolves a posting's worth in the envelope's currency.
func (e *Envelope) contribution(p *Posting, entry *Entry) (decimal.Decimal, error) {
	amt := p.Amount
	if amt == nil {
		blank, err := entry.BlankAmount()
		if err != nil {
			return decimal.Zero, err
		}
		amt = blank
	}

	if amt.Sym == e.Target.Sym {
		return amt.Mag, nil
	}

	// the posting is in a different currency than the envelope
	if e.Target.Sym != "" {
		return decimal.Zero, newProcessingError(
			fmt.Sprintf("the envelope `%s` in `%s` uses a non-native currency, and this entry's postings can't be converted to it; money can't be moved automatically",
				e.Name, e.parentAccount),
			entry.String())
	}
	native, ok := p.NativeValue()
	if !ok {
		return decimal.Zero, newProcessingError(
			"how much money to move to or from an envelope can't be inferred here; specify a manual envelope posting with the correct amount",
			entry.String())
	}
	return native, nil
}

// applyAmount moves money into or out of the envelope. Spending (negative)
// always comes out of the current period's balance. Funding (positive) lands
// in the current period only when the transaction predates the last due
// date; everything later saves toward the next period.
func (e *Envelope) applyAmount(a Amount, date, today time.Time) {
	switch {
	case a.Sign() < 0:
		e.nowAmount.Mag = e.nowAmount.Mag.Add(a.Mag)
	case a.Sign() > 0:
		if last, ok := e.Freq.LastDueDate(today); ok && date.Before(last) {
			e.nowAmount.Mag = e.nowAmount.Mag.Add(a.Mag)
		} else {
			e.nextAmount.Mag = e.nextAmount.Mag.Add(a.Mag)
		}
	}
	e.lastTxDate = Day(date)
}

// totalSaved is the envelope's combined balance across both periods.
func (e *Envelope) totalSaved() decimal.Decimal {
	return e.nowAmount.Mag.Add(e.nextAmount.Mag)
}

// remainingNext is how far the next-period balance is from the target.
func (e *Envelope) remainingNext() decimal.Decimal {
	return e.Target.Mag.Sub(e.nextAmount.Mag)
}

// FillingAmount computes the automatic transfer for today given the
// account's available value in the envelope's currency. Positive available
// money fills the envelope according to its funding method; negative
// available money (an overdrawn account) drains the envelope, but never
// below zero. Envelopes without a due date, manual envelopes, and envelopes
// already touched today never move money.
func (e *Envelope) FillingAmount(available Amount, today time.Time) Amount {
	zero := Zero(e.Target.Sym)
	if available.Sym != e.Target.Sym {
		return zero
	}

	next, ok := e.NextDueDate(today)
	if !ok {
		return zero
	}
	if e.lastTxDate.Equal(Day(today)) {
		return zero
	}
	if e.Funding == Manual {
		return zero
	}

	if available.Sign() < 0 {
		// overdrawn: pull money back out, but leave the envelope at zero
		total := e.totalSaved()
		if total.Sign() <= 0 {
			return zero
		}
		return Amount{Sym: e.Target.Sym, Mag: decimal.Max(available.Mag, total.Neg())}
	}

	remaining := e.remainingNext()
	var mag decimal.Decimal
	switch e.Funding {
	case Aggressive:
		mag = decimal.Min(e.Target.Mag, available.Mag, remaining)
	case Conservative:
		days := int64(Day(next).Sub(Day(today)).Hours() / 24)
		if days < 1 {
			days = 1
		}
		perDay := remaining.Div(decimal.NewFromInt(days))
		mag = decimal.Min(perDay, available.Mag, remaining)
	default:
		return zero
	}

	// clamp: an envelope is never funded into the negative, and filling
	// never takes money out
	mag = decimal.Max(mag, e.totalSaved().Neg())
	mag = decimal.Max(mag, decimal.Zero)
	return Amount{Sym: e.Target.Sym, Mag: mag}
}

// FillingPosting packages today's automatic transfer as an envelope posting
// against the parent account.
func (e *Envelope) FillingPosting(available *AmountPool, today time.Time) Posting {
	amount := e.FillingAmount(available.Only(e.Target.Sym), today)
	return NewEnvelopePosting(e.parentAccount, e.Name, amount)
}
