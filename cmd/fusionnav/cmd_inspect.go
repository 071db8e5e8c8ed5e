package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/trail"
)

var inspectFlags struct {
	db      string
	session string
	limit   int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Examine stored navigation trails",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.db, "db", "trail.db", "Trail database path")
	f.StringVarP(&inspectFlags.session, "session", "s", "", "Session ID to dump (lists recent sessions when omitted)")
	f.IntVar(&inspectFlags.limit, "limit", 10, "Max sessions to list")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	store, err := trail.NewStore(inspectFlags.db)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if inspectFlags.session == "" {
		sessions, err := store.RecentSessions(inspectFlags.limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}
		for _, s := range sessions {
			outcome := s.Outcome
			if outcome == "" {
				outcome = "in-flight"
			}
			fmt.Fprintf(out, "%s  %-24s %-10s attempts=%d tier=%d  %s\n",
				s.SessionID, s.Target, outcome, s.Attempts, s.MaxTier,
				s.StartedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	events, err := store.ListEvents(inspectFlags.session)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events for session %s", inspectFlags.session)
	}
	for _, e := range events {
		fmt.Fprintf(out, "cycle %-3d %-24s %-10s conf=%.2f recals=%d -> %-14s %s",
			e.Cycle, e.Context, e.Tier, e.Confidence, e.Recals, e.State, e.Reason)
		if e.RecoveryTier > 0 {
			fmt.Fprintf(out, " (tier %d)", e.RecoveryTier)
		}
		fmt.Fprintln(out)
	}
	return nil
}
