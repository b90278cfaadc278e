package stash

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testEnvelope(target int64, freq Frequency, funding FundingMethod) *Envelope {
	return NewEnvelope("groceries", Expense, "assets:checking", NewAmount(target, "$"), freq, funding)
}

// entries carrying explicit envelope postings route money by date: spending
// always hits the current period, funding goes to the current period only
// when it predates the period boundary.
func TestEnvelopeManualPostingRouting(t *testing.T) {
	t.Parallel()
	today := Date(2024, 1, 15) // Monthly(1): last due 2024/01/01, next 2024/02/01

	apply := func(t *testing.T, env *Envelope, date time.Time, mag int64) {
		t.Helper()
		entry, err := NewEntry(date, Cleared, "fund", "", []Posting{
			NewEnvelopePosting("assets:checking", "groceries", NewAmount(mag, "$")),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := env.ProcessEntry(entry, today); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("funding after the boundary saves for next period", func(t *testing.T) {
		env := testEnvelope(200, Monthly(1), Manual)
		apply(t, env, Date(2024, 1, 10), 50)
		if !env.NowAmount().IsZero() || !env.NextAmount().Mag.Equal(decimal.NewFromInt(50)) {
			t.Errorf("now = %s, next = %s; want 0 and $50", env.NowAmount(), env.NextAmount())
		}
	})

	t.Run("funding before the boundary lands in the current period", func(t *testing.T) {
		env := testEnvelope(200, Monthly(1), Manual)
		apply(t, env, Date(2023, 12, 25), 50)
		if !env.NowAmount().Mag.Equal(decimal.NewFromInt(50)) || !env.NextAmount().IsZero() {
			t.Errorf("now = %s, next = %s; want $50 and 0", env.NowAmount(), env.NextAmount())
		}
	})

	t.Run("spending always hits the current period", func(t *testing.T) {
		env := testEnvelope(200, Monthly(1), Manual)
		apply(t, env, Date(2024, 1, 10), -30)
		if !env.NowAmount().Mag.Equal(decimal.NewFromInt(-30)) {
			t.Errorf("now = %s, want $-30", env.NowAmount())
		}
	})
}

func TestEnvelopeManualPostingCurrencyMismatch(t *testing.T) {
	t.Parallel()

	env := testEnvelope(200, Monthly(1), Manual)
	entry, err := NewEntry(Date(2024, 1, 10), Cleared, "fund", "", []Posting{
		NewEnvelopePosting("assets:checking", "groceries", NewAmount(50, "EUR")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ProcessEntry(entry, Date(2024, 1, 15)); !IsKind(err, ProcessingErr) {
		t.Fatalf("error = %v, want a processing error for mismatched currency", err)
	}
}

// a purchase touching the parent account and an auto account moves the
// smaller of the two sides out of the envelope automatically.
func TestEnvelopeInfersSpendingFromAutoAccounts(t *testing.T) {
	t.Parallel()

	env := testEnvelope(200, Monthly(1), Manual)
	env.AddAutoAccount("expenses:groceries")

	entry, err := NewEntry(Date(2024, 1, 10), Cleared, "shopping", "", []Posting{
		NewPosting("expenses:groceries", amt(50, "$")),
		NewPosting("assets:checking", amt(-50, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ProcessEntry(entry, Date(2024, 1, 15)); err != nil {
		t.Fatal(err)
	}
	if !env.NowAmount().Mag.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("now = %s, want $-50 after inferred spending", env.NowAmount())
	}
}

func TestEnvelopeInferenceIgnoresUnrelatedEntries(t *testing.T) {
	t.Parallel()

	env := testEnvelope(200, Monthly(1), Manual)
	env.AddAutoAccount("expenses:groceries")

	entry, err := NewEntry(Date(2024, 1, 10), Cleared, "rent", "", []Posting{
		NewPosting("expenses:rent", amt(900, "$")),
		NewPosting("assets:checking", amt(-900, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ProcessEntry(entry, Date(2024, 1, 15)); err != nil {
		t.Fatal(err)
	}
	if !env.NowAmount().IsZero() || !env.NextAmount().IsZero() {
		t.Errorf("envelope moved money on an unrelated entry: now = %s, next = %s",
			env.NowAmount(), env.NextAmount())
	}
}

// inference with a blank posting resolves the blank before taking the
// smaller side.
func TestEnvelopeInfersThroughBlankPosting(t *testing.T) {
	t.Parallel()

	env := testEnvelope(200, Monthly(1), Manual)
	env.AddAutoAccount("expenses:groceries")

	entry, err := NewEntry(Date(2024, 1, 10), Cleared, "shopping", "", []Posting{
		NewPosting("expenses:groceries", amt(50, "$")),
		NewPosting("assets:checking", nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ProcessEntry(entry, Date(2024, 1, 15)); err != nil {
		t.Fatal(err)
	}
	if !env.NowAmount().Mag.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("now = %s, want $-50", env.NowAmount())
	}
}

func TestFillingAmount(t *testing.T) {
	t.Parallel()
	today := Date(2024, 1, 22) // Monthly(1): next due 2024/02/01, 10 days out

	t.Run("conservative spreads the target over the days left", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Conservative)
		got := env.FillingAmount(NewAmount(1000, "$"), today)
		if !got.Mag.Equal(decimal.NewFromInt(30)) {
			t.Errorf("FillingAmount = %s, want $30 (300 over 10 days)", got)
		}
	})

	t.Run("aggressive takes everything available up to the target", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		got := env.FillingAmount(NewAmount(50, "$"), today)
		if !got.Mag.Equal(decimal.NewFromInt(50)) {
			t.Errorf("FillingAmount = %s, want $50", got)
		}
	})

	t.Run("aggressive caps at the target", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		got := env.FillingAmount(NewAmount(5000, "$"), today)
		if !got.Mag.Equal(decimal.NewFromInt(300)) {
			t.Errorf("FillingAmount = %s, want $300", got)
		}
	})

	t.Run("manual envelopes never fill", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Manual)
		if got := env.FillingAmount(NewAmount(1000, "$"), today); !got.IsZero() {
			t.Errorf("FillingAmount = %s, want zero for manual funding", got)
		}
	})

	t.Run("no due date means no fill", func(t *testing.T) {
		env := testEnvelope(300, Never(), Aggressive)
		if got := env.FillingAmount(NewAmount(1000, "$"), today); !got.IsZero() {
			t.Errorf("FillingAmount = %s, want zero without a due date", got)
		}
	})

	t.Run("currency mismatch means no fill", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		if got := env.FillingAmount(NewAmount(1000, "EUR"), today); !got.IsZero() {
			t.Errorf("FillingAmount = %s, want zero across currencies", got)
		}
	})
}

func TestFillingAmountDrainsWhenOverdrawn(t *testing.T) {
	t.Parallel()
	today := Date(2024, 1, 22)

	fund := func(t *testing.T, env *Envelope, mag int64) {
		t.Helper()
		entry, err := NewEntry(Date(2024, 1, 10), Cleared, "fund", "", []Posting{
			NewEnvelopePosting("assets:checking", "groceries", NewAmount(mag, "$")),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := env.ProcessEntry(entry, today); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("drains the shortfall", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		fund(t, env, 100)
		got := env.FillingAmount(NewAmount(-20, "$"), today)
		if !got.Mag.Equal(decimal.NewFromInt(-20)) {
			t.Errorf("FillingAmount = %s, want $-20", got)
		}
	})

	t.Run("never drains below zero", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		fund(t, env, 100)
		got := env.FillingAmount(NewAmount(-500, "$"), today)
		if !got.Mag.Equal(decimal.NewFromInt(-100)) {
			t.Errorf("FillingAmount = %s, want $-100, the whole envelope", got)
		}
	})

	t.Run("an empty envelope has nothing to drain", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Aggressive)
		if got := env.FillingAmount(NewAmount(-20, "$"), today); !got.IsZero() {
			t.Errorf("FillingAmount = %s, want zero", got)
		}
	})

	t.Run("manual envelopes never drain", func(t *testing.T) {
		env := testEnvelope(300, Monthly(1), Manual)
		fund(t, env, 100)
		if got := env.FillingAmount(NewAmount(-20, "$"), today); !got.IsZero() {
			t.Errorf("FillingAmount = %s, want zero for manual funding", got)
		}
	})
}

func TestFillingAmountSkipsEnvelopesTouchedToday(t *testing.T) {
	t.Parallel()
	today := Date(2024, 1, 22)

	env := testEnvelope(300, Monthly(1), Aggressive)
	entry, err := NewEntry(today, Cleared, "fund", "", []Posting{
		NewEnvelopePosting("assets:checking", "groceries", NewAmount(10, "$")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ProcessEntry(entry, today); err != nil {
		t.Fatal(err)
	}

	if got := env.FillingAmount(NewAmount(1000, "$"), today); !got.IsZero() {
		t.Errorf("FillingAmount = %s, want zero after a same-day transaction", got)
	}
}

func TestCompareDue(t *testing.T) {
	t.Parallel()
	today := Date(2024, 1, 15)

	sooner := NewEnvelope("rent", Expense, "a", NewAmount(900, "$"), Monthly(20), Manual)
	later := NewEnvelope("vacation", Goal, "a", NewAmount(2000, "$"), Once(Date(2024, 6, 1)), Manual)
	undated := NewEnvelope("rainy-day", Goal, "a", NewAmount(500, "$"), Never(), Manual)

	if sooner.CompareDue(later, today) >= 0 {
		t.Error("rent (due sooner) should sort before vacation")
	}
	if later.CompareDue(undated, today) >= 0 {
		t.Error("a dated envelope should sort before an undated one")
	}
	if undated.CompareDue(undated, today) != 0 {
		t.Error("an envelope should compare equal to itself")
	}
}

func TestEnvelopeStartingDateDelaysDueDate(t *testing.T) {
	t.Parallel()

	env := testEnvelope(300, Monthly(1), Aggressive)
	env.SetStartingDate(Date(2024, 3, 15))

	due, ok := env.NextDueDate(Date(2024, 1, 22))
	if !ok || !due.Equal(Date(2024, 3, 15)) {
		t.Errorf("NextDueDate = %v, %v; want the starting date 2024/03/15", due, ok)
	}
}
