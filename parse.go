package stash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alfredxing/calc/compute"
	date "github.com/joyt/godate"
	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
)

// ParseJournalFile parses a journal file into a ledger and wires the ledger
// to append future entries back to the same file.
func ParseJournalFile(path string, today time.Time) (*Ledger, error) {
	l := NewLedger(today)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &journalParser{ledger: l, decimalSym: '.'}
	if err := p.parse(path, f); err != nil {
		return nil, err
	}
	l.SetWriter(&FileWriter{Path: path, Layout: l.DateLayout})
	return l, nil
}

// ParseJournal parses journal text from a reader. Entries appended to the
// returned ledger are not persisted anywhere.
func ParseJournal(r io.Reader, today time.Time) (*Ledger, error) {
	l := NewLedger(today)
	p := &journalParser{ledger: l, decimalSym: '.'}
	if err := p.parse("", r); err != nil {
		return nil, err
	}
	return l, nil
}

// FileWriter appends entries to a journal file in their canonical text form.
type FileWriter struct {
	Path   string
	Layout string
}

func (w *FileWriter) AppendEntry(e *Entry) error {
	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "\n%s", e.Format(w.Layout))
	return err
}

// removeComments cuts the line at the first `;` or `//`.
func removeComments(s string) string {
	if i := strings.Index(s, ";"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return s
}

type journalParser struct {
	ledger     *Ledger
	scanner    *linescanner
	decimalSym rune

	// most dates in a journal repeat, so remember the previous one
	strPrevDate string
	prevDate    time.Time
	prevDateErr error
}

func (p *journalParser) errorf(format string, args ...any) error {
	where := ""
	if p.scanner != nil {
		where = fmt.Sprintf("%s:%d: ", p.scanner.Name(), p.scanner.LineNumber())
	}
	return fmt.Errorf(where+format, args...)
}

// parse consumes the reader chunk by chunk. A chunk starts at a line whose
// first character is not whitespace and runs until the next such line.
func (p *journalParser) parse(name string, r io.Reader) error {
	outer := p.scanner
	p.scanner = newLineScanner(name, r)
	defer func() { p.scanner = outer }()

	var chunk []string
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		err := p.parseChunk(strings.Join(chunk, "\n"))
		chunk = chunk[:0]
		return err
	}

	for p.scanner.Scan() {
		line := strings.TrimRight(p.scanner.Text(), " \t")
		if strings.TrimSpace(removeComments(line)) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(chunk) == 0 {
				return p.errorf("unexpected indented line outside of a block: %s", strings.TrimSpace(line))
			}
			chunk = append(chunk, line)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		chunk = append(chunk, line)
	}
	return flush()
}

// parseChunk dispatches on the chunk's first keyword: account blocks,
// journal directives, includes, or entries.
func (p *journalParser) parseChunk(chunk string) error {
	keyword, rest, _ := strings.Cut(strings.TrimSpace(chunk), " ")
	switch keyword {
	case "account":
		return p.parseAccount(chunk)
	case "currency":
		value := firstField(rest)
		if value == "" {
			return p.errorf("the `currency` keyword requires a symbol")
		}
		p.ledger.DefaultCurrency = value
		return nil
	case "date_format":
		value := strings.TrimSpace(removeComments(rest))
		if value == "" {
			return p.errorf("the `date_format` keyword requires a pattern")
		}
		layout, err := strftime.Layout(value)
		if err != nil {
			return p.errorf("unusable date_format pattern %q: %w", value, err)
		}
		p.ledger.DateLayout = layout
		return nil
	case "decimal_symbol":
		value := firstField(rest)
		if len([]rune(value)) != 1 {
			return p.errorf("the `decimal_symbol` keyword requires a single character")
		}
		p.decimalSym = []rune(value)[0]
		return nil
	case "include":
		return p.include(firstField(rest))
	default:
		return p.parseEntry(chunk)
	}
}

func firstField(s string) string {
	fields := strings.Fields(removeComments(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (p *journalParser) include(pattern string) error {
	if pattern == "" {
		return p.errorf("no file provided to an `include` clause")
	}
	paths, _ := filepath.Glob(filepath.Join(filepath.Dir(p.scanner.Name()), pattern))
	if len(paths) < 1 {
		return p.errorf("unable to include file(%s): not found", pattern)
	}
	for _, incpath := range paths {
		f, err := os.Open(incpath)
		if err != nil {
			return err
		}
		err = p.parse(incpath, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// parseAccount parses an `account` block: the header names the account and
// each `expense` or `goal` line inside starts an envelope block.
func (p *journalParser) parseAccount(chunk string) error {
	lines := strings.Split(chunk, "\n")

	tokens := strings.Fields(removeComments(lines[0]))
	switch {
	case len(tokens) < 2:
		return p.errorf("blank account definition")
	case len(tokens) > 2:
		return p.errorf("account names can't contain spaces; use underscores instead")
	}
	account := NewAccount(tokens[1])

	var envLines []string
	flush := func() error {
		if len(envLines) == 0 {
			return nil
		}
		env, err := p.parseEnvelope(envLines, account.Name)
		envLines = envLines[:0]
		if err != nil {
			return err
		}
		return account.AddEnvelope(env)
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(removeComments(line))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "expense ") || strings.HasPrefix(trimmed, "goal ") {
			if err := flush(); err != nil {
				return err
			}
			envLines = append(envLines, trimmed)
			continue
		}
		if len(envLines) == 0 {
			return p.errorf("the `%s` line isn't understood inside an account block", trimmed)
		}
		envLines = append(envLines, trimmed)
	}
	if err := flush(); err != nil {
		return err
	}

	p.ledger.AddAccount(account)
	return nil
}

// parseEnvelope parses one envelope block: a header such as
//
//	expense groceries due every 5th
//	goal vacation due 2021/06/01 starting 2020/06/01
//
// followed by `amount`, `for` and `funding` property lines.
func (p *journalParser) parseEnvelope(lines []string, accountName string) (*Envelope, error) {
	header := lines[0]
	tokens := strings.Fields(header)
	if len(tokens) < 2 {
		return nil, p.errorf("blank envelope header")
	}

	kind, err := ParseEnvelopeKind(tokens[0])
	if err != nil {
		return nil, err
	}
	name := tokens[1]

	// a `starting` clause both anchors period-counting frequencies and
	// delays the envelope's first due date
	var starting time.Time
	hasStarting := false
	if idx := strings.Index(header, " starting "); idx >= 0 {
		raw := strings.TrimSpace(header[idx+len(" starting "):])
		d, derr := time.Parse(p.ledger.DateLayout, raw)
		if derr != nil {
			return nil, p.errorf("couldn't parse starting date `%s` with layout `%s`", raw, p.ledger.DateLayout)
		}
		starting = d
		hasStarting = true
		header = header[:idx]
	}

	freq, err := p.parseDueClause(header, starting, hasStarting)
	if err != nil {
		return nil, err
	}

	env := NewEnvelope(name, kind, accountName, Zero(p.ledger.DefaultCurrency), freq, Manual)
	if hasStarting {
		env.SetStartingDate(starting)
	}

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return nil, p.errorf("the `%s` property of the envelope `%s` in `%s` is blank", key, name, accountName)
		}
		switch key {
		case "amount":
			target, aerr := ParseAmount(value, p.decimalSym)
			if aerr != nil {
				return nil, aerr
			}
			env.Target = target
			env.nowAmount.Sym = target.Sym
			env.nextAmount.Sym = target.Sym
		case "for":
			if len(strings.Fields(value)) != 1 {
				return nil, p.errorf("account names can't contain spaces; this `for` property couldn't be parsed")
			}
			env.AddAutoAccount(value)
		case "funding":
			funding, ferr := ParseFundingMethod(value)
			if ferr != nil {
				return nil, ferr
			}
			env.Funding = funding
		default:
			return nil, p.errorf("the `%s` property isn't understood here", key)
		}
	}

	return env, nil
}

// parseDueClause finds the frequency text after ` by ` or ` due `, or
// recognizes `no date`.
func (p *journalParser) parseDueClause(header string, starting time.Time, hasStarting bool) (Frequency, error) {
	if strings.Contains(header, "no date") {
		return Never(), nil
	}

	idx := strings.Index(header, " by ")
	cut := len(" by ")
	if idx < 0 {
		idx = strings.Index(header, " due ")
		cut = len(" due ")
	}
	if idx < 0 {
		return Frequency{}, p.errorf("couldn't figure out when this envelope is due; use `no date` if it never is")
	}
	return ParseFrequency(strings.TrimSpace(header[idx+cut:]), p.ledger.DateLayout, starting, hasStarting)
}

// parseDate parses an entry date, falling back to layout detection when the
// configured layout doesn't match.
func (p *journalParser) parseDate(s string) (time.Time, error) {
	if s == p.strPrevDate {
		return p.prevDate, p.prevDateErr
	}

	d, err := time.Parse(p.ledger.DateLayout, s)
	if err != nil {
		var layout string
		d, layout, err = date.ParseAndGetLayout(s)
		if err == nil {
			p.ledger.DateLayout = layout
		} else {
			err = p.errorf("unable to parse date(%s): %w", s, err)
		}
	}

	p.strPrevDate = s
	p.prevDate = d
	p.prevDateErr = err
	return d, err
}

// parseEntry parses an entry chunk: a `DATE STATUS DESCRIPTION [PAYEE]`
// header followed by indented postings.
func (p *journalParser) parseEntry(chunk string) error {
	lines := strings.Split(chunk, "\n")

	header := lines[0]
	comment := ""
	if i := strings.Index(header, "//"); i >= 0 {
		comment = strings.TrimSpace(header[i+2:])
		header = header[:i]
	} else if i := strings.Index(header, ";"); i >= 0 {
		comment = strings.TrimSpace(header[i+1:])
		header = header[:i]
	}
	header = strings.TrimSpace(header)

	dateTok, rest, ok := strings.Cut(header, " ")
	if !ok {
		return p.errorf("unable to parse entry header: %s", header)
	}
	entryDate, err := p.parseDate(dateTok)
	if err != nil {
		return err
	}

	statusTok, rest, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok {
		return p.errorf("an entry needs a status and description after its date")
	}
	status, err := ParseEntryStatus(statusTok)
	if err != nil {
		return err
	}

	description := strings.TrimSpace(rest)
	payee := ""
	if i := strings.Index(description, "["); i >= 0 {
		j := strings.Index(description, "]")
		if j < i {
			return p.errorf("unclosed payee bracket in entry header")
		}
		payee = description[i+1 : j]
		description = strings.TrimSpace(description[:i] + description[j+1:])
	}

	var postings []Posting
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(removeComments(line))
		if trimmed == "" {
			continue
		}
		posting, perr := p.parsePosting(trimmed)
		if perr != nil {
			return perr
		}
		postings = append(postings, posting)
	}

	entry, err := NewEntry(entryDate, status, description, payee, postings)
	if err != nil {
		return err
	}
	entry.Comment = comment
	return p.ledger.AddEntry(entry)
}

// parsePosting parses one posting line: either
//
//	envelope ACCOUNT ENVELOPE AMOUNT
//
// or a classic posting
//
//	ACCOUNT [AMOUNT] [@ UNITCOST | = TOTALCOST] [! BALANCE]
func (p *journalParser) parsePosting(line string) (Posting, error) {
	tokens := strings.Fields(line)

	if tokens[0] == "envelope" {
		if len(tokens) < 4 {
			return Posting{}, p.errorf("an envelope posting needs an account, an envelope name and an amount")
		}
		amount, err := ParseAmount(strings.Join(tokens[3:], " "), p.decimalSym)
		if err != nil {
			return Posting{}, err
		}
		return NewEnvelopePosting(tokens[1], tokens[2], amount), nil
	}

	posting := Posting{Account: tokens[0]}
	rest := tokens[1:]

	isOp := func(s string) bool { return s == "@" || s == "=" || s == "!" }

	cutoff := len(rest)
	for i, tok := range rest {
		if isOp(tok) {
			cutoff = i
			break
		}
	}
	if raw := strings.Join(rest[:cutoff], " "); raw != "" {
		amount, err := ParseAmount(raw, p.decimalSym)
		if err != nil {
			return Posting{}, err
		}
		posting.Amount = &amount
	}

	extract := func(op string) (*Amount, error) {
		for i, tok := range rest {
			if tok != op {
				continue
			}
			end := len(rest)
			for j := i + 1; j < end; j++ {
				if isOp(rest[j]) {
					end = j
					break
				}
			}
			raw := strings.Join(rest[i+1:end], " ")
			if raw == "" {
				return nil, p.errorf("the `%s` operator needs an amount after it", op)
			}
			a, err := ParseAmount(raw, p.decimalSym)
			if err != nil {
				return nil, err
			}
			return &a, nil
		}
		return nil, nil
	}

	unit, err := extract("@")
	if err != nil {
		return Posting{}, err
	}
	total, err := extract("=")
	if err != nil {
		return Posting{}, err
	}
	switch {
	case unit != nil && total != nil:
		return Posting{}, p.errorf("a posting can have a unit cost or a total cost, not both")
	case unit != nil:
		posting.Cost = &Cost{Kind: UnitCost, Amount: *unit}
	case total != nil:
		posting.Cost = &Cost{Kind: TotalCost, Amount: *total}
	}

	balance, err := extract("!")
	if err != nil {
		return Posting{}, err
	}
	posting.BalanceAssertion = balance

	return posting, nil
}

// ParseAmount parses a magnitude with an optional currency symbol on either
// side: `$-40`, `300 USD`, `-12.50`. A parenthesized magnitude is evaluated
// as an arithmetic expression, `(3*5.20) USD`.
func ParseAmount(s string, decimalSym rune) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "--", "")
	if s == "" {
		return Amount{}, newParseError("this amount is blank", s)
	}

	if i := strings.Index(s, "("); i >= 0 {
		j := strings.LastIndex(s, ")")
		if j < i {
			return Amount{}, newParseError("unclosed expression in amount", s)
		}
		val, err := compute.Evaluate(s[i+1 : j])
		if err != nil {
			return Amount{}, newParseError(fmt.Sprintf("couldn't evaluate amount expression: %v", err), s)
		}
		sym := strings.TrimSpace(s[:i] + s[j+1:])
		return Amount{Sym: sym, Mag: decimal.NewFromFloat(val)}, nil
	}

	var rawMag, rawSym strings.Builder
	for _, c := range s {
		switch {
		case (c >= '0' && c <= '9') || c == decimalSym || c == '-':
			rawMag.WriteRune(c)
		case c == '.' || c == ',' || c == ' ':
			// grouping characters and spacing
		default:
			rawSym.WriteRune(c)
		}
	}

	magStr := rawMag.String()
	if decimalSym != '.' {
		magStr = strings.ReplaceAll(magStr, string(decimalSym), ".")
	}
	mag, err := decimal.NewFromString(magStr)
	if err != nil {
		return Amount{}, newParseError("couldn't parse the magnitude of this amount", s)
	}

	return Amount{Sym: rawSym.String(), Mag: mag}, nil
}
