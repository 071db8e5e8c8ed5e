package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/replay"
)

var replayFlags struct {
	fixture string
	verify  bool
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run a recorded session fixture through fusion and navigation",
	RunE:  runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&replayFlags.fixture, "fixture", "f", "", "Fixture JSON path (required)")
	f.BoolVar(&replayFlags.verify, "verify", false, "Fail when results diverge from the fixture's expectations")

	_ = replayCmd.MarkFlagRequired("fixture")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	fixture, err := replay.LoadFixture(replayFlags.fixture)
	if err != nil {
		return err
	}

	results, summary := fixture.Run()
	out := cmd.OutOrStdout()
	if fixture.Description != "" {
		fmt.Fprintf(out, "%s\n", fixture.Description)
	}
	fmt.Fprintf(out, "Target: %s\n\n", fixture.Target)
	for _, r := range results {
		fmt.Fprintf(out, "%-8s %-24s %-10s conf=%.2f -> %-14s %s",
			r.CycleID, r.Context, r.Tier, r.Confidence, r.State, r.Reason)
		if r.RecoveryTier > 0 {
			fmt.Fprintf(out, " (tier %d)", r.RecoveryTier)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\nCycles: %d  Attempts: %d  Loops: %d  MaxTier: %d\n",
		summary.TotalCycles, summary.Attempts, summary.LoopsDetected, summary.MaxTier)
	switch {
	case summary.Reached:
		fmt.Fprintln(out, "Outcome: target reached")
	case summary.Failed:
		fmt.Fprintf(out, "Outcome: failed (%s)\n", summary.FailureReason)
	default:
		fmt.Fprintln(out, "Outcome: fixture ended mid-session")
	}

	if replayFlags.verify && len(fixture.Expected) > 0 {
		if err := fixture.Check(results); err != nil {
			return fmt.Errorf("verification: %w", err)
		}
		fmt.Fprintln(out, "Verification: all expectations matched")
	}
	return nil
}
