package cmd

import (
	"log"
	"os"
	"time"

	date "github.com/joyt/godate"
	"github.com/spf13/cobra"

	"github.com/stashledger/stash"
)

var journalFilePath string
var noMove bool
var todayString string

// RootCmd is exported so main can hand it to coloredcobra.
var RootCmd = &cobra.Command{
	Use:   "stash",
	Short: "Stash is a plaintext ledger with envelope budgeting",
	Long: `Stash keeps a double-entry journal in a plain text file and layers
envelopes on top of it: per-account buckets that are automatically funded
toward their next due date, so the balance you see is the balance you can
actually spend.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	journalFilePath = os.Getenv("LEDGER_FILE")
	RootCmd.PersistentFlags().StringVarP(&journalFilePath, "file", "f", journalFilePath, "Journal file (default: value of LEDGER_FILE environment variable)")
	RootCmd.PersistentFlags().BoolVar(&noMove, "no-move", false, "Don't automatically move funds into envelopes")
	RootCmd.PersistentFlags().StringVar(&todayString, "today", "", "Override the current date (for reproducible output)")
}

// cliToday resolves the date all due-date math runs against.
func cliToday() time.Time {
	if todayString == "" {
		return time.Now()
	}
	d, err := date.Parse(todayString)
	if err != nil {
		log.Fatalf("unable to parse --today date(%s): %s", todayString, err)
	}
	return d
}

// cliLedger parses the journal and, unless --no-move is set, tops up every
// account's envelopes, persisting the generated entry back to the journal.
func cliLedger() *stash.Ledger {
	if journalFilePath == "" {
		log.Fatalln("no journal file; pass -f or set LEDGER_FILE")
	}
	ledger, err := stash.ParseJournalFile(journalFilePath, cliToday())
	if err != nil {
		log.Fatalln(err)
	}
	if !noMove {
		if err := ledger.FillEnvelopes(); err != nil {
			log.Fatalln(err)
		}
	}
	return ledger
}
