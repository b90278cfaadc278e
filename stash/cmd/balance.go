package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:     "balance [account-substring-filter]...",
	Aliases: []string{"bal", "b"},
	Short:   "Print account balances",
	Run: func(_ *cobra.Command, args []string) {
		ledger := cliLedger()

		totals, err := ledger.Totals()
		if err != nil {
			log.Fatalln(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
		for _, name := range ledger.AccountNames() {
			if !matchesAny(name, args) {
				continue
			}
			pool := totals[name]
			if pool == nil || pool.IsZero() {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t\n", name, pool)
		}
		w.Flush()
	},
}

func matchesAny(name string, substrings []string) bool {
	if len(substrings) == 0 {
		return true
	}
	for _, sub := range substrings {
		if containsFold(name, sub) {
			return true
		}
	}
	return false
}

func init() {
	RootCmd.AddCommand(balanceCmd)
}
