package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stashledger/stash"
	"github.com/stashledger/stash/stash/csvimport"
	"github.com/stashledger/stash/stash/qif"
)

var rulesFilePath string
var qifDateFormat string
var writeEntries bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <csv-or-qif-file>",
	Args:  cobra.ExactArgs(1),
	Short: "Import transactions from a bank CSV or QIF export",
	Long: `Import reads a bank export and synthesizes journal entries against the
existing ledger. CSV imports are driven by a TOML rules file (by default a
sibling of the export named <file>.rules); the counter-account of each entry
is picked by the rules' patterns, or failing that by a classifier trained on
the journal's existing entries.

Entries are printed to stdout for review; pass --write to append them to the
journal instead.`,
	Run: func(_ *cobra.Command, args []string) {
		ledger := cliLedger()

		var entries []*stash.Entry
		var err error
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".qif":
			entries, err = importQIF(ledger, args[0])
		default:
			entries, err = importCSV(ledger, args[0])
		}
		if err != nil {
			log.Fatalln(err)
		}

		for _, entry := range entries {
			if writeEntries {
				err = ledger.AppendEntry(entry)
			} else {
				fmt.Printf("%s\n", entry.Format(ledger.DateLayout))
			}
			if err != nil {
				log.Fatalln(err)
			}
		}
	},
}

func importCSV(ledger *stash.Ledger, path string) ([]*stash.Entry, error) {
	rulesPath := rulesFilePath
	if rulesPath == "" {
		rulesPath = path + ".rules"
	}
	rules, err := csvimport.LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return csvimport.NewImporter(rules, ledger).Read(f)
}

func importQIF(ledger *stash.Ledger, path string) ([]*stash.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	txs, err := qif.Parse(f)
	if err != nil {
		return nil, err
	}

	var entries []*stash.Entry
	for _, tx := range txs {
		entryDate, derr := time.Parse(qifDateFormat, tx.Date)
		if derr != nil {
			return nil, fmt.Errorf("qif: couldn't parse date %q with format %q", tx.Date, qifDateFormat)
		}
		amount, aerr := stash.ParseAmount(tx.Amount, '.')
		if aerr != nil {
			return nil, aerr
		}
		if amount.Sym == "" {
			amount.Sym = ledger.DefaultCurrency
		}

		counter := tx.Category
		if counter == "" {
			counter = "unknown:unknown"
		}
		entry, eerr := stash.NewEntry(entryDate, stash.Pending, tx.Memo, tx.Payee, []stash.Posting{
			stash.NewPosting("assets:"+strings.ToLower(tx.Type), &amount),
			stash.NewPosting(counter, nil),
		})
		if eerr != nil {
			return nil, eerr
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&rulesFilePath, "rules", "", "Rules file for CSV imports (default: <csv-file>.rules)")
	importCmd.Flags().StringVar(&qifDateFormat, "qif-date-format", "01/02/2006", "Date format of QIF files, in Go layout form.")
	importCmd.Flags().BoolVar(&writeEntries, "write", false, "Append imported entries to the journal instead of printing them.")
}
