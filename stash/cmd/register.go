package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	date "github.com/joyt/godate"
	"github.com/juztin/numeronym"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stashledger/stash"
)

var beginString, endString string
var registerWidth int
var registerWide bool

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:     "register [account-substring-filter]...",
	Aliases: []string{"reg", "r"},
	Short:   "Print a date-ordered register of postings",
	Run: func(cmd *cobra.Command, args []string) {
		ledger := cliLedger()

		begin := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		end := ledger.Today.AddDate(100, 0, 0)
		var err error
		if beginString != "" {
			if begin, err = date.Parse(beginString); err != nil {
				log.Fatalf("unable to parse begin date(%s): %s", beginString, err)
			}
		}
		if endString != "" {
			if end, err = date.Parse(endString); err != nil {
				log.Fatalf("unable to parse end date(%s): %s", endString, err)
			}
		}

		columns := registerColumns(cmd.Flags().Changed("columns"))
		entries := ledger.EntriesInRange(begin, end)
		for _, filter := range args {
			entries = stash.EntriesMatching(entries, filter)
		}

		for _, entry := range entries {
			printRegisterEntry(ledger, entry, columns)
		}
	},
}

// registerColumns picks the output width. An explicit --columns always wins;
// --wide stretches to the terminal width (132 when stdout is not a terminal).
func registerColumns(widthSet bool) int {
	if widthSet || !registerWide {
		return registerWidth
	}
	width := 132
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if tw, _, err := term.GetSize(fd); err == nil {
			width = tw
		}
	}
	return width
}

func printRegisterEntry(ledger *stash.Ledger, entry *stash.Entry, columns int) {
	// date, description and one posting per line; the account column gets
	// whatever is left after the fixed-width columns
	accountWidth := columns - 10 - 25 - 15 - 3
	if accountWidth < 10 {
		accountWidth = 10
	}

	header := entry.Description
	if entry.Payee != "" {
		header = fmt.Sprintf("%s [%s]", entry.Description, entry.Payee)
	}
	if len(header) > 25 {
		header = header[:25]
	}

	first := true
	for _, posting := range entry.Postings() {
		if posting.IsEnvelope() {
			continue
		}
		lead := strings.Repeat(" ", 10+1+25)
		if first {
			lead = fmt.Sprintf("%-10s %-25s", entry.Date.Format(ledger.DateLayout), header)
			first = false
		}

		amount := ""
		if posting.Amount != nil {
			amount = posting.Amount.String()
		}
		fmt.Printf("%s %-*s %15s\n", lead, accountWidth, abbreviate(posting.Account, accountWidth), amount)
	}
}

// abbreviate shortens an account name to fit the column, compressing each
// path segment to a numeronym ("expenses:groceries" -> "e6s:g7s").
func abbreviate(name string, width int) string {
	if len(name) <= width {
		return name
	}
	parts := strings.Split(name, ":")
	for i, part := range parts {
		parts[i] = string(numeronym.Parse([]byte(part)))
	}
	short := strings.Join(parts, ":")
	if len(short) > width {
		short = short[:width]
	}
	return short
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func init() {
	RootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&beginString, "begin-date", "b", "", "Begin date of entries to show.")
	registerCmd.Flags().StringVarP(&endString, "end-date", "e", "", "End date of entries to show.")
	registerCmd.Flags().IntVar(&registerWidth, "columns", 80, "Set a column width for output.")
	registerCmd.Flags().BoolVar(&registerWide, "wide", false, "Use the full terminal width.")
}
