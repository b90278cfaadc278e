// Package csvimport turns bank CSV exports into journal entries, driven by a
// TOML rules file and a naive-Bayes classifier trained on the journal's
// existing entries.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/jbrukh/bayesian"

	"github.com/stashledger/stash"
)

const unknownAccount = "unknown:unknown"

// Importer converts CSV records into entries against a ledger.
type Importer struct {
	rules      *Rules
	ledger     *stash.Ledger
	classifier *bayesian.Classifier
}

// NewImporter builds an importer for the given ledger. The classifier is
// trained immediately from the ledger's entries; a ledger with too few
// accounts yields no classifier and predictions fall back to
// "unknown:unknown".
func NewImporter(rules *Rules, ledger *stash.Ledger) *Importer {
	imp := &Importer{rules: rules, ledger: ledger}
	imp.classifier = trainClassifier(ledger, rules.Account)
	return imp
}

// trainClassifier learns counter-account names from every entry that touches
// the source account, keyed on description words.
func trainClassifier(ledger *stash.Ledger, sourceAccount string) *bayesian.Classifier {
	names := ledger.AccountNames()
	var classes []bayesian.Class
	for _, name := range names {
		if name != sourceAccount {
			classes = append(classes, bayesian.Class(name))
		}
	}
	if len(classes) < 2 {
		// bayesian.NewClassifier panics below two classes
		return nil
	}

	classifier := bayesian.NewClassifier(classes...)
	for _, entry := range ledger.Entries() {
		if !entry.HasPostingFor(sourceAccount) {
			continue
		}
		words := strings.Fields(strings.ToLower(entry.Description + " " + entry.Payee))
		if len(words) == 0 {
			continue
		}
		for _, posting := range entry.Postings() {
			if posting.Account != sourceAccount && !posting.IsEnvelope() {
				classifier.Learn(words, bayesian.Class(posting.Account))
			}
		}
	}
	return classifier
}

// predictAccount classifies description words into a counter-account,
// requiring a clear margin between the best and second-best scores.
func (imp *Importer) predictAccount(words []string) string {
	if imp.classifier == nil || len(words) == 0 {
		return unknownAccount
	}

	best, second := math.Inf(-1), math.Inf(-1)
	bestIdx := 0
	scores, _, _ := imp.classifier.LogScores(words)
	for i, score := range scores {
		if score > best {
			second = best
			best = score
			bestIdx = i
		} else if score > second {
			second = score
		}
	}
	if best-second > 10 {
		return string(imp.classifier.Classes[bestIdx])
	}
	return unknownAccount
}

// Read decodes all CSV records from r and returns the synthesized entries in
// order. Nothing is added to the ledger; callers append the entries they
// keep.
func (imp *Importer) Read(r io.Reader) ([]*stash.Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(records) <= imp.rules.Skip {
		return nil, nil
	}

	var entries []*stash.Entry
	for i, record := range records[imp.rules.Skip:] {
		entry, err := imp.entryFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv record %d: %w", i+imp.rules.Skip+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// entryFromRecord applies the rules to one CSV record.
func (imp *Importer) entryFromRecord(record []string) (*stash.Entry, error) {
	vars := make(map[string]string)
	for i, name := range imp.rules.Fields {
		if i >= len(record) || name == "-" || name == "" {
			continue
		}
		vars[name] = strings.TrimSpace(record[i])
	}

	date, err := time.Parse(imp.rules.dateLayout, vars["date"])
	if err != nil {
		return nil, fmt.Errorf("couldn't parse date %q with format %q", vars["date"], imp.rules.DateFormat)
	}

	amount, err := stash.ParseAmount(vars["amount"], imp.rules.decimalSym)
	if err != nil {
		return nil, err
	}
	if imp.rules.Negate {
		amount = amount.Neg()
	}
	if imp.rules.Currency != "" {
		amount.Sym = imp.rules.Currency
	} else if amount.Sym == "" {
		amount.Sym = imp.ledger.DefaultCurrency
	}

	status, err := stash.ParseEntryStatus(injectVariables(imp.rules.Status, vars))
	if err != nil {
		return nil, err
	}
	description := injectVariables(imp.rules.Description, vars)
	payee := injectVariables(imp.rules.Payee, vars)
	comment := injectVariables(imp.rules.Comment, vars)

	rule, matched := imp.rules.match(strings.Join(record, " "))
	counter := imp.counterAccount(rule, matched, description, payee, amount)
	if matched && rule.Payee != "" {
		payee = rule.Payee
	}

	source := stash.NewPosting(imp.rules.Account, &amount)
	entry, err := stash.NewEntry(date, status, description, payee, []stash.Posting{
		source,
		stash.NewPosting(counter, nil),
	})
	if err != nil {
		return nil, err
	}
	entry.Comment = comment
	return entry, nil
}

// counterAccount resolves the other side of an imported posting: the matched
// pattern rule first, then the classifier, then a sign-based unknown bucket.
func (imp *Importer) counterAccount(rule PatternRule, matched bool, description, payee string, amount stash.Amount) string {
	if matched && rule.Account != "" {
		return rule.Account
	}

	words := strings.Fields(strings.ToLower(description + " " + payee))
	if predicted := imp.predictAccount(words); predicted != unknownAccount {
		return predicted
	}

	switch {
	case amount.Sign() < 0:
		return "expenses:unknown"
	case amount.Sign() > 0:
		return "income:unknown"
	default:
		return unknownAccount
	}
}

// injectVariables replaces `%name%` references with record field values.
func injectVariables(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "%"+name+"%", value)
	}
	return strings.TrimSpace(out)
}
