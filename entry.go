package stash

import (
	"fmt"
	"strings"
	"time"
)

// EntryStatus is the one-character status of an entry.
type EntryStatus int

const (
	// Pending is written `?`.
	Pending EntryStatus = iota
	// Cleared is written `~`.
	Cleared
	// Reconciled is written `*`.
	Reconciled
)

// ParseEntryStatus maps a status character to its EntryStatus.
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch s {
	case "?":
		return Pending, nil
	case "~":
		return Cleared, nil
	case "*":
		return Reconciled, nil
	}
	return 0, newParseError(
		fmt.Sprintf("`%s` is not a status; entries require one of `?`, `~` or `*`", s), "")
}

func (s EntryStatus) String() string {
	switch s {
	case Pending:
		return "?"
	case Cleared:
		return "~"
	case Reconciled:
		return "*"
	}
	return "?"
}

// Entry is a single transaction: a dated, described list of postings.
// Entries are processed exactly once and never mutated after validation, so
// the postings slice must not be modified once the entry is built.
type Entry struct {
	Date        time.Time
	Status      EntryStatus
	Description string
	Payee       string
	Comment     string

	postings []Posting
}

// NewEntry builds and validates an entry. The returned entry owns the
// postings slice.
func NewEntry(date time.Time, status EntryStatus, description, payee string, postings []Posting) (*Entry, error) {
	e := &Entry{
		Date:        Day(date),
		Status:      status,
		Description: description,
		Payee:       payee,
		postings:    postings,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Postings returns the entry's postings. Callers must not modify them.
func (e *Entry) Postings() []Posting {
	return e.postings
}

// HasBlankPosting reports whether any posting's amount must be inferred.
func (e *Entry) HasBlankPosting() bool {
	for i := range e.postings {
		if e.postings[i].IsBlank() {
			return true
		}
	}
	return false
}

// HasEnvelopePosting reports whether any posting explicitly targets an
// envelope.
func (e *Entry) HasEnvelopePosting() bool {
	for i := range e.postings {
		if e.postings[i].IsEnvelope() {
			return true
		}
	}
	return false
}

// HasPostingFor reports whether any posting is addressed to the account.
func (e *Entry) HasPostingFor(account string) bool {
	for i := range e.postings {
		if e.postings[i].Account == account {
			return true
		}
	}
	return false
}

// hasMixedCurrencies reports whether the non-blank postings span more than
// one currency symbol.
func (e *Entry) hasMixedCurrencies() bool {
	first := ""
	seen := false
	for i := range e.postings {
		p := &e.postings[i]
		if p.Amount == nil {
			continue
		}
		if !seen {
			first = p.Amount.Sym
			seen = true
			continue
		}
		if p.Amount.Sym != first {
			return true
		}
	}
	return false
}

// Validate checks the entry's structural invariants: at most one blank
// posting, and no blank posting alongside postings in more than one currency
// (inference would be ambiguous).
func (e *Entry) Validate() error {
	blanks := 0
	syms := make(map[string]struct{})
	for i := range e.postings {
		p := &e.postings[i]
		if p.Amount == nil {
			blanks++
			if blanks > 1 {
				return newValidationError(
					"a single entry can't have more than one blank posting", e.String())
			}
			continue
		}
		if p.Amount.Sym != "" {
			syms[p.Amount.Sym] = struct{}{}
		}
	}

	if blanks > 0 && len(syms) > 1 {
		return newValidationError(
			"the amount of a blank posting can't be inferred when other postings have mixed currencies",
			e.String())
	}
	return nil
}

// BlankAmount infers the value of the entry's blank posting: the negated sum
// of the other postings, which is what makes the entry balance to zero. When
// the entry mixes currencies, each posting contributes its native-currency
// value instead; a non-blank posting without a native conversion makes the
// inference fail. Returns nil when no blank posting exists.
func (e *Entry) BlankAmount() (*Amount, error) {
	if !e.HasBlankPosting() {
		return nil, nil
	}

	if e.hasMixedCurrencies() {
		blank := Zero("")
		for i := range e.postings {
			p := &e.postings[i]
			native, ok := p.NativeValue()
			if !ok {
				if p.Amount != nil {
					return nil, newProcessingError(
						"a blank posting's value can't be inferred: this entry mixes currencies and a posting does not provide its worth in the native currency",
						e.String())
				}
				continue
			}
			blank.Mag = blank.Mag.Sub(native)
		}
		return &blank, nil
	}

	var blank *Amount
	for i := range e.postings {
		p := &e.postings[i]
		if p.Amount == nil {
			continue
		}
		if blank == nil {
			neg := p.Amount.Neg()
			blank = &neg
			continue
		}
		sub, err := blank.Sub(*p.Amount)
		if err != nil {
			return nil, err
		}
		*blank = sub
	}
	return blank, nil
}

// String renders the entry on one header line plus tab-indented postings,
// for error context.
func (e *Entry) String() string {
	payee := e.Payee
	if payee == "" {
		payee = "No payee"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s [%s]", e.Date.Format("2006/01/02"), e.Status, e.Description, payee)
	for i := range e.postings {
		sb.WriteString("\n\t")
		sb.WriteString(e.postings[i].String())
	}
	return sb.String()
}

// Format renders the entry in its canonical, reparsable journal form using
// the journal's date layout.
func (e *Entry) Format(dateLayout string) string {
	var sb strings.Builder
	sb.WriteString(e.Date.Format(dateLayout))
	sb.WriteString(" ")
	sb.WriteString(e.Status.String())
	sb.WriteString(" ")
	sb.WriteString(e.Description)
	if e.Payee != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Payee)
		sb.WriteString("]")
	}
	if e.Comment != "" {
		sb.WriteString(" // ")
		sb.WriteString(e.Comment)
	}
	sb.WriteString("\n")
	for i := range e.postings {
		sb.WriteString("    ")
		sb.WriteString(strings.TrimRight(e.postings[i].String(), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
