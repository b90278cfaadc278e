// Package qif decodes Quicken Interchange Format files, the subset needed
// for importing bank and cash account exports.
package qif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Split is one split line group of a transaction.
type Split struct {
	Category string
	Memo     string
	Amount   string
}

// Transaction is a single non-investment QIF record. Field values are kept
// as the raw strings from the file; the importer decides how to interpret
// dates and amounts.
type Transaction struct {
	Type     string // account-type header, e.g. "Bank" or "Cash"
	Date     string
	Amount   string
	Num      string
	Payee    string
	Memo     string
	Address  string // multi-line, joined with '\n'
	Cleared  string
	Category string
	Splits   []Split
}

// Decoder reads QIF records from a stream.
type Decoder struct {
	r    *bufio.Reader
	line int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the whole stream and returns every transaction in order.
func (d *Decoder) Decode() ([]*Transaction, error) {
	var (
		txs     []*Transaction
		curType string
	)

	for {
		line, err := d.readLine()
		if err == io.EOF {
			return txs, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "!Type:") {
			curType = strings.TrimSpace(line[len("!Type:"):])
			continue
		}
		if line[0] == '!' {
			// other option/autoswitch headers are ignored
			continue
		}

		tx, err := d.decodeTransaction(curType, line)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
}

// decodeTransaction reads field lines until the '^' record terminator.
// firstLine is the record's first field line, already read.
func (d *Decoder) decodeTransaction(txType, firstLine string) (*Transaction, error) {
	tx := &Transaction{Type: txType}
	if err := tx.assign(firstLine); err != nil {
		return nil, fmt.Errorf("line %d: %w", d.line, err)
	}

	for {
		line, err := d.readLine()
		if err == io.EOF {
			return nil, fmt.Errorf("line %d: unterminated transaction at end of input", d.line)
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		if line[0] == '^' {
			return tx, nil
		}
		if err := tx.assign(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
	}
}

func (tx *Transaction) assign(line string) error {
	code, value := line[0], strings.TrimSpace(line[1:])
	switch code {
	case 'D':
		tx.Date = value
	case 'T', 'U':
		tx.Amount = value
	case 'N':
		tx.Num = value
	case 'P':
		tx.Payee = value
	case 'M':
		tx.Memo = value
	case 'A':
		if tx.Address != "" {
			tx.Address += "\n"
		}
		tx.Address += value
	case 'C':
		tx.Cleared = value
	case 'L':
		tx.Category = value
	case 'S':
		tx.Splits = append(tx.Splits, Split{Category: value})
	case 'E':
		if len(tx.Splits) == 0 {
			return fmt.Errorf("split memo before split category")
		}
		tx.Splits[len(tx.Splits)-1].Memo = value
	case '$':
		if len(tx.Splits) == 0 {
			return fmt.Errorf("split amount before split category")
		}
		tx.Splits[len(tx.Splits)-1].Amount = value
	default:
		// unknown field codes are skipped
	}
	return nil
}

func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	d.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// Parse is a convenience wrapper decoding all transactions from r.
func Parse(r io.Reader) ([]*Transaction, error) {
	return NewDecoder(r).Decode()
}
