package stash

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// EntryWriter persists an entry's canonical text form to the backing store.
// The written form must be reparsable by the journal parser.
type EntryWriter interface {
	AppendEntry(e *Entry) error
}

// discardWriter is used when a ledger has no backing store, such as in
// tests.
type discardWriter struct{}

func (discardWriter) AppendEntry(*Entry) error { return nil }

// Ledger orchestrates accounts and entries. Entries must be added in
// non-decreasing date order, each exactly once: envelope state is
// order-sensitive. A ledger is not safe for concurrent mutation; callers
// wrapping it in a service must serialize writes.
type Ledger struct {
	// Today is the injected current date used for all due-date math, so
	// runs are reproducible.
	Today time.Time

	// DateLayout is the Go layout entries are formatted with.
	DateLayout string

	// DefaultCurrency is the symbol assumed by importers when a source
	// doesn't carry one.
	DefaultCurrency string

	accounts map[string]*Account
	entries  []*Entry
	writer   EntryWriter
}

// NewLedger returns an empty ledger with the default date layout. today is
// truncated to day precision.
func NewLedger(today time.Time) *Ledger {
	return &Ledger{
		Today:      Day(today),
		DateLayout: "2006/01/02",
		accounts:   make(map[string]*Account),
		writer:     discardWriter{},
	}
}

// SetWriter installs the persistence hook used by FillEnvelopes and Import
// paths.
func (l *Ledger) SetWriter(w EntryWriter) {
	if w == nil {
		w = discardWriter{}
	}
	l.writer = w
}

// AddAccount registers an account under its name. Redefining a name replaces
// the previous account.
func (l *Ledger) AddAccount(a *Account) {
	l.accounts[a.Name] = a
}

// Account returns the named account, or nil.
func (l *Ledger) Account(name string) *Account {
	return l.accounts[name]
}

// AccountNames returns all account names, sorted.
func (l *Ledger) AccountNames() []string {
	names := make([]string, 0, len(l.accounts))
	for name := range l.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasAccount reports whether the name is a declared account.
func (l *Ledger) HasAccount(name string) bool {
	_, ok := l.accounts[name]
	return ok
}

// Entries returns the ledger's entries in chronological order.
func (l *Ledger) Entries() []*Entry {
	return l.entries
}

// validateAccounts checks that every classic posting references a declared
// account.
func (l *Ledger) validateAccounts(e *Entry) error {
	for _, p := range e.Postings() {
		if p.IsEnvelope() {
			continue
		}
		if !l.HasAccount(p.Account) {
			return newValidationError(
				fmt.Sprintf("the account `%s` is not defined in your journal", p.Account),
				e.String())
		}
	}
	return nil
}

// AddEntry validates the entry, lets every account process it, and appends
// it to the history. Entries are kept sorted by date; accounts are mutually
// independent within one entry, so their processing order does not matter.
func (l *Ledger) AddEntry(e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := l.validateAccounts(e); err != nil {
		return err
	}
	for _, a := range l.accounts {
		if err := a.ProcessEntry(e, l.Today); err != nil {
			return err
		}
	}
	l.entries = append(l.entries, e)
	slices.SortStableFunc(l.entries, func(a, b *Entry) int {
		return a.Date.Compare(b.Date)
	})
	return nil
}

// AppendEntry persists the entry through the writer, then adds it to the
// ledger. Validation runs before anything is written, so a failed entry
// never leaves a partially-written journal.
func (l *Ledger) AppendEntry(e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := l.validateAccounts(e); err != nil {
		return err
	}
	if err := l.writer.AppendEntry(e); err != nil {
		return err
	}
	return l.AddEntry(e)
}

// FillEnvelopes collects the filling and draining postings of every account
// and, when any money needs to move, persists and applies one balanced,
// system-authored entry carrying all of them.
func (l *Ledger) FillEnvelopes() error {
	var postings []Posting
	for _, name := range l.AccountNames() {
		postings = append(postings, l.accounts[name].FillingPostings(l.Today)...)
	}

	postings = slices.DeleteFunc(postings, func(p Posting) bool {
		return p.Amount == nil || p.Amount.IsZero()
	})
	if len(postings) == 0 {
		return nil
	}

	entry, err := NewEntry(l.Today, Cleared, "move to envelopes", "", postings)
	if err != nil {
		return err
	}
	entry.Comment = "automatically generated"
	return l.AppendEntry(entry)
}

// Totals sums every posting per account across the whole ledger, inferring
// blank amounts. Envelope postings don't contribute; they only move
// earmarked money within an account.
func (l *Ledger) Totals() (map[string]*AmountPool, error) {
	totals := make(map[string]*AmountPool)
	for _, e := range l.entries {
		for _, p := range e.Postings() {
			if p.IsEnvelope() {
				continue
			}
			pool, ok := totals[p.Account]
			if !ok {
				pool = &AmountPool{}
				totals[p.Account] = pool
			}
			if p.Amount != nil {
				pool.Add(*p.Amount)
				continue
			}
			blank, err := e.BlankAmount()
			if err != nil {
				return nil, err
			}
			if blank != nil {
				pool.Add(*blank)
			}
		}
	}
	return totals, nil
}

// EntriesInRange returns entries between begin and end, inclusive. A zero
// begin or end leaves that side unbounded.
func (l *Ledger) EntriesInRange(begin, end time.Time) []*Entry {
	var out []*Entry
	for _, e := range l.entries {
		if !begin.IsZero() && e.Date.Before(begin) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EntriesMatching filters entries to those with a posting whose account name
// contains the substring.
func EntriesMatching(entries []*Entry, accountSubstring string) []*Entry {
	if accountSubstring == "" {
		return entries
	}
	var out []*Entry
	for _, e := range entries {
		for _, p := range e.Postings() {
			if strings.Contains(p.Account, accountSubstring) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
