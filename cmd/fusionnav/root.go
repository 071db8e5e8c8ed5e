// fusionnav is the main CLI: navigate (drive a live session), replay
// (re-run a recorded fixture), and inspect (examine stored trails).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "fusionnav",
	Short: "Signal-fusion perception and adaptive navigation recovery",
	Long: "Fusionnav classifies application screens by fusing template, lexical,\n" +
		"and layout signals, and navigates to a target context with escalating\n" +
		"recovery when it gets stuck.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(navigateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
