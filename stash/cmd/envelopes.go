package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stashledger/stash"
)

const barWidth = 24

// envelopesCmd represents the envelopes command
var envelopesCmd = &cobra.Command{
	Use:     "envelopes [account-substring-filter]...",
	Aliases: []string{"env", "e"},
	Short:   "Print envelope balances and progress toward their targets",
	Run: func(_ *cobra.Command, args []string) {
		ledger := cliLedger()
		colorize := isatty.IsTerminal(os.Stdout.Fd())

		for _, name := range ledger.AccountNames() {
			account := ledger.Account(name)
			if len(account.Envelopes()) == 0 || !matchesAny(name, args) {
				continue
			}

			fmt.Printf("%s\n", name)
			fmt.Printf("  real value      %s\n", account.RealValue())
			fmt.Printf("  available value %s\n", account.AvailableValue())
			for _, env := range account.Envelopes() {
				printEnvelope(env, ledger.Today, colorize)
			}
			fmt.Println()
		}
	},
}

func printEnvelope(env *stash.Envelope, today time.Time, colorize bool) {
	now := env.NowAmount()
	fraction := 1.0
	if !env.Target.IsZero() {
		fraction = now.Mag.InexactFloat64() / env.Target.Mag.InexactFloat64()
	}

	fmt.Printf("    %-20s %s %10s of %-10s %s\n",
		env.Name, progressBar(fraction, colorize), now, env.Target, dueIn(env, today))
	if next := env.NextAmount(); !next.IsZero() {
		fmt.Printf("    %-20s %*s %10s toward the following due date\n", "", barWidth, "", next)
	}
}

// progressBar renders a fill bar, shaded from red through green as the
// envelope approaches its target.
func progressBar(fraction float64, colorize bool) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)

	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)
	if !colorize {
		return "[" + bar + "]"
	}

	empty := colorful.Color{R: 0.86, G: 0.08, B: 0.24}
	full := colorful.Color{R: 0.20, G: 0.80, B: 0.20}
	r, g, b := empty.BlendHsv(full, fraction).Clamped().RGB255()
	return fmt.Sprintf("[\x1b[38;2;%d;%d;%dm%s\x1b[0m]", r, g, b, bar)
}

// dueIn humanizes the time until the envelope's next due date.
func dueIn(env *stash.Envelope, today time.Time) string {
	due, ok := env.NextDueDate(today)
	if !ok {
		return ""
	}
	if !due.After(today) {
		return "due today"
	}
	left := durafmt.Parse(due.Sub(today)).LimitFirstN(2)
	return fmt.Sprintf("due in %s", left)
}

func init() {
	RootCmd.AddCommand(envelopesCmd)
}
