package csvimport

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ncruces/go-strftime"
	"github.com/pelletier/go-toml"
)

// Rules describes how to turn a CSV export into journal entries. The file is
// TOML, conventionally a sibling of the CSV named `<csv>.rules`:
//
//	skip = 1
//	date_format = "%m/%d/%Y"
//	fields = ["date", "payee", "amount"]
//	account = "assets:checking"
//	status = "~"
//	description = "%payee%"
//
//	[[rule]]
//	pattern = "WHOLEFDS|GROCERY"
//	account = "expenses:groceries"
//	payee = "Whole Foods"
type Rules struct {
	// Skip is the number of leading rows to discard, usually the header.
	Skip int `toml:"skip"`

	// DateFormat is a strptime-style pattern for the date field.
	DateFormat string `toml:"date_format"`

	// DecimalSymbol separates the integer and fractional parts of amounts.
	DecimalSymbol string `toml:"decimal_symbol"`

	// Fields names each CSV column in order. Named columns become
	// variables usable as `%name%` in the templates below; use "-" to
	// skip a column. "date", "amount" and "payee" are the ones the
	// importer itself needs.
	Fields []string `toml:"fields"`

	// Account is the source account every imported entry posts against.
	Account string `toml:"account"`

	// Status marks imported entries; pending by default so they can be
	// reviewed.
	Status string `toml:"status"`

	// Description, Payee and Comment are templates with `%field%`
	// variables.
	Description string `toml:"description"`
	Payee       string `toml:"payee"`
	Comment     string `toml:"comment"`

	// Negate flips the sign of every amount, for exports that report
	// debits as positive.
	Negate bool `toml:"negate"`

	// Currency overrides the currency symbol of imported amounts.
	Currency string `toml:"currency"`

	Rules []PatternRule `toml:"rule"`

	dateLayout string
	decimalSym rune
	patterns   []*regexp.Regexp
}

// PatternRule overrides the counter-account and payee for records whose
// joined fields match the pattern.
type PatternRule struct {
	Pattern string `toml:"pattern"`
	Account string `toml:"account"`
	Payee   string `toml:"payee"`
}

// LoadRules reads and validates a TOML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

// ParseRules parses TOML rules text and compiles its patterns.
func ParseRules(data []byte) (*Rules, error) {
	r := &Rules{
		Skip:          1,
		DateFormat:    "%Y/%m/%d",
		DecimalSymbol: ".",
		Status:        "~",
		Description:   "%payee%",
	}
	if err := toml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	if r.Account == "" {
		return nil, fmt.Errorf("rules: an `account` to import into is required")
	}
	if len(r.Fields) == 0 {
		return nil, fmt.Errorf("rules: a `fields` list naming the csv columns is required")
	}
	hasDate, hasAmount := false, false
	for _, f := range r.Fields {
		switch f {
		case "date":
			hasDate = true
		case "amount":
			hasAmount = true
		}
	}
	if !hasDate || !hasAmount {
		return nil, fmt.Errorf("rules: `fields` must include both `date` and `amount`")
	}

	layout, err := strftime.Layout(r.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("rules: unusable date_format %q: %w", r.DateFormat, err)
	}
	r.dateLayout = layout

	runes := []rune(r.DecimalSymbol)
	if len(runes) != 1 {
		return nil, fmt.Errorf("rules: decimal_symbol must be a single character")
	}
	r.decimalSym = runes[0]

	for _, pr := range r.Rules {
		re, rerr := regexp.Compile("(?i)" + pr.Pattern)
		if rerr != nil {
			return nil, fmt.Errorf("rules: bad pattern %q: %w", pr.Pattern, rerr)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// match returns the first pattern rule matching the record's joined text.
func (r *Rules) match(joined string) (PatternRule, bool) {
	for i, re := range r.patterns {
		if re.MatchString(joined) {
			return r.Rules[i], true
		}
	}
	return PatternRule{}, false
}
