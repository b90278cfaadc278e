package cmd

import "testing"

func TestRegisterColumnsPrecedence(t *testing.T) {
	origWidth, origWide := registerWidth, registerWide
	defer func() { registerWidth, registerWide = origWidth, origWide }()

	// an explicit --columns wins even when --wide is also set
	registerWidth, registerWide = 100, true
	if got := registerColumns(true); got != 100 {
		t.Errorf("columns with explicit width and --wide = %d, want 100", got)
	}

	// neither flag set: the default width stands
	registerWidth, registerWide = 80, false
	if got := registerColumns(false); got != 80 {
		t.Errorf("columns with defaults = %d, want 80", got)
	}
}

func TestAbbreviate(t *testing.T) {
	if got := abbreviate("assets:checking", 20); got != "assets:checking" {
		t.Errorf("abbreviate of a fitting name = %q, want it unchanged", got)
	}
	if got := abbreviate("expenses:dining:coffee", 12); got != "e6s:d4g:c4e" {
		t.Errorf("abbreviate(expenses:dining:coffee, 12) = %q, want e6s:d4g:c4e", got)
	}
	if got := abbreviate("expenses:dining:coffee", 8); len(got) > 8 {
		t.Errorf("abbreviate did not truncate to width: %q", got)
	}
}
