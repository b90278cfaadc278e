package stash

import (
	"fmt"
	"slices"
	"time"
)

// Account owns a set of uniquely-named envelopes plus the account's real
// balance. The real value reflects only classic postings addressed to this
// account; money earmarked into envelopes is subtracted when computing what
// is available.
type Account struct {
	Name string

	envelopes []*Envelope
	realValue AmountPool
}

// NewAccount returns an account with no envelopes and a zero balance.
func NewAccount(name string) *Account {
	return &Account{Name: name}
}

// AddEnvelope attaches an envelope to the account. Envelope names are unique
// within an account; a duplicate is a validation error.
func (a *Account) AddEnvelope(e *Envelope) error {
	for _, existing := range a.envelopes {
		if existing.Name == e.Name {
			return newValidationError(
				fmt.Sprintf("there's a duplicate envelope definition for `%s` in the account `%s`",
					e.Name, a.Name), "")
		}
	}
	a.envelopes = append(a.envelopes, e)
	return nil
}

// Envelopes returns the account's envelopes in definition order.
func (a *Account) Envelopes() []*Envelope {
	return a.envelopes
}

// Envelope returns the named envelope, or nil.
func (a *Account) Envelope(name string) *Envelope {
	for _, e := range a.envelopes {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// RealValue returns the account's balance ignoring envelopes.
func (a *Account) RealValue() AmountPool {
	return a.realValue.Clone()
}

// ProcessEntry lets every envelope react to the entry, then folds the
// entry's classic postings for this account into the real value, inferring
// blank amounts where needed.
func (a *Account) ProcessEntry(entry *Entry, today time.Time) error {
	for _, e := range a.envelopes {
		if err := e.ProcessEntry(entry, today); err != nil {
			return err
		}
	}

	for _, p := range entry.Postings() {
		if p.Account != a.Name || p.IsEnvelope() {
			continue
		}
		if p.Amount != nil {
			a.realValue.Add(*p.Amount)
			continue
		}
		blank, err := entry.BlankAmount()
		if err != nil {
			return err
		}
		if blank != nil {
			a.realValue.Add(*blank)
		}
	}
	return nil
}

// AvailableValue is the account's unearmarked money: the real value minus
// everything committed to envelopes, per currency.
func (a *Account) AvailableValue() AmountPool {
	pool := a.realValue.Clone()
	for _, e := range a.envelopes {
		pool.Sub(e.NowAmount())
		pool.Sub(e.NextAmount())
	}
	return pool
}

// FillingPostings generates the ordered postings that fill or drain this
// account's envelopes for today. For each currency with money available,
// envelopes are filled soonest-due first; when a currency is overdrawn,
// envelopes are drained latest-due first, protecting near-term obligations.
// The running available value is updated after every posting so the same
// money is never allocated twice, and zero postings are discarded.
func (a *Account) FillingPostings(today time.Time) []Posting {
	sorted := make([]*Envelope, len(a.envelopes))
	copy(sorted, a.envelopes)
	slices.SortStableFunc(sorted, func(x, y *Envelope) int {
		return x.CompareDue(y, today)
	})

	available := a.AvailableValue()
	var postings []Posting

	apply := func(e *Envelope) {
		p := e.FillingPosting(&available, today)
		if p.Amount.IsZero() {
			return
		}
		available.Sub(*p.Amount)
		postings = append(postings, p)
	}

	for _, amt := range a.AvailableValue().Amounts() {
		switch {
		case amt.Sign() < 0:
			for i := len(sorted) - 1; i >= 0; i-- {
				apply(sorted[i])
			}
		case amt.Sign() > 0:
			for _, e := range sorted {
				apply(e)
			}
		}
	}
	return postings
}
