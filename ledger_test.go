package stash

import (
	"testing"

	"github.com/shopspring/decimal"
)

// captureWriter records appended entries instead of touching a file.
type captureWriter struct {
	entries []*Entry
}

func (w *captureWriter) AppendEntry(e *Entry) error {
	w.entries = append(w.entries, e)
	return nil
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger(Date(2024, 1, 15))
	l.DefaultCurrency = "$"

	checking := NewAccount("assets:checking")
	env := NewEnvelope("groceries", Expense, "assets:checking", NewAmount(200, "$"), Monthly(5), Aggressive)
	env.AddAutoAccount("expenses:groceries")
	if err := checking.AddEnvelope(env); err != nil {
		t.Fatal(err)
	}
	l.AddAccount(checking)
	l.AddAccount(NewAccount("expenses:groceries"))
	l.AddAccount(NewAccount("income:job"))
	return l
}

func TestAddEntryRejectsUndeclaredAccounts(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	entry, err := NewEntry(Date(2024, 1, 2), Cleared, "oops", "", []Posting{
		NewPosting("assets:savings", amt(10, "$")),
		NewPosting("income:job", amt(-10, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddEntry(entry); !IsKind(err, ValidationErr) {
		t.Fatalf("error = %v, want a validation error for an undeclared account", err)
	}
}

func TestLedgerEndToEnd(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	writer := &captureWriter{}
	l.SetWriter(writer)

	paycheck, err := NewEntry(Date(2024, 1, 2), Reconciled, "paycheck", "Employer", []Posting{
		NewPosting("assets:checking", amt(500, "$")),
		NewPosting("income:job", nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddEntry(paycheck); err != nil {
		t.Fatal(err)
	}

	shopping, err := NewEntry(Date(2024, 1, 10), Cleared, "shopping", "", []Posting{
		NewPosting("expenses:groceries", amt(50, "$")),
		NewPosting("assets:checking", amt(-50, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddEntry(shopping); err != nil {
		t.Fatal(err)
	}

	checking := l.Account("assets:checking")
	env := checking.Envelope("groceries")

	// the shopping entry touches the parent and the auto account, so the
	// envelope records the spending automatically
	if !env.NowAmount().Mag.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("envelope now = %s, want $-50", env.NowAmount())
	}
	if got := checking.RealValue().Only("$"); !got.Mag.Equal(decimal.NewFromInt(450)) {
		t.Errorf("real value = %s, want $450", got)
	}

	if err := l.FillEnvelopes(); err != nil {
		t.Fatal(err)
	}

	// one generated entry, persisted through the writer
	if len(writer.entries) != 1 {
		t.Fatalf("writer saw %d entries, want 1", len(writer.entries))
	}
	generated := writer.entries[0]
	if generated.Description != "move to envelopes" || generated.Status != Cleared {
		t.Errorf("generated entry header = %s", generated)
	}
	if !generated.Date.Equal(l.Today) {
		t.Errorf("generated entry date = %v, want today", generated.Date)
	}
	postings := generated.Postings()
	if len(postings) != 1 || postings[0].Envelope != "groceries" {
		t.Fatalf("generated postings = %v, want one groceries filling posting", postings)
	}
	if !postings[0].Amount.Mag.Equal(decimal.NewFromInt(200)) {
		t.Errorf("filling amount = %s, want the full $200 target", postings[0].Amount)
	}

	// the generated entry is processed like any other: the envelope now
	// holds its target for the next period and available money shrinks
	if !env.NextAmount().Mag.Equal(decimal.NewFromInt(200)) {
		t.Errorf("envelope next = %s, want $200", env.NextAmount())
	}
	if got := checking.AvailableValue().Only("$"); !got.Mag.Equal(decimal.NewFromInt(300)) {
		t.Errorf("available value = %s, want $300", got)
	}

	// filling is idempotent within a day: the envelope was touched today
	if err := l.FillEnvelopes(); err != nil {
		t.Fatal(err)
	}
	if len(writer.entries) != 1 {
		t.Errorf("second fill generated another entry; writer saw %d", len(writer.entries))
	}
}

func TestLedgerTotals(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	entry, err := NewEntry(Date(2024, 1, 2), Cleared, "paycheck", "", []Posting{
		NewPosting("assets:checking", amt(500, "$")),
		NewPosting("income:job", nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddEntry(entry); err != nil {
		t.Fatal(err)
	}

	totals, err := l.Totals()
	if err != nil {
		t.Fatal(err)
	}
	if got := totals["assets:checking"].Only("$"); !got.Mag.Equal(decimal.NewFromInt(500)) {
		t.Errorf("checking total = %s, want $500", got)
	}
	if got := totals["income:job"].Only("$"); !got.Mag.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("income total = %s, want $-500; the blank posting must be inferred", got)
	}
}

func TestEntriesKeptSortedByDate(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	add := func(day int) {
		t.Helper()
		entry, err := NewEntry(Date(2024, 1, day), Cleared, "deposit", "", []Posting{
			NewPosting("assets:checking", amt(10, "$")),
			NewPosting("income:job", amt(-10, "$")),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := l.AddEntry(entry); err != nil {
			t.Fatal(err)
		}
	}
	add(10)
	add(2)
	add(5)

	entries := l.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatalf("entries out of order: %v before %v", entries[i-1].Date, entries[i].Date)
		}
	}
}

func TestEntriesMatching(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	entry, err := NewEntry(Date(2024, 1, 2), Cleared, "deposit", "", []Posting{
		NewPosting("assets:checking", amt(10, "$")),
		NewPosting("income:job", amt(-10, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddEntry(entry); err != nil {
		t.Fatal(err)
	}

	if got := EntriesMatching(l.Entries(), "checking"); len(got) != 1 {
		t.Errorf("EntriesMatching(checking) = %d entries, want 1", len(got))
	}
	if got := EntriesMatching(l.Entries(), "brokerage"); len(got) != 0 {
		t.Errorf("EntriesMatching(brokerage) = %d entries, want 0", len(got))
	}
}
