package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/sortinghat/pkg/forest"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
	"github.com/vanderheijden86/sortinghat/pkg/version"
)

// newStatsCmd probes the backend with the calls the browser makes on
// startup and prints their timings.
func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Time the startup requests against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics.ResetAll()
			ctx := cmd.Context()

			groups, err := a.client.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("listing groups: %w", err)
			}
			byBranch, err := a.client.ListAllBranches(ctx, "")
			if err != nil {
				return fmt.Errorf("listing nodes: %w", err)
			}

			counts := map[string]int{"groups": len(groups)}
			for _, b := range model.Branches {
				f := forest.Build(byBranch[b])
				counts[string(b)] = f.Len()
			}

			stats := metrics.AllTimingStats()
			if a.jsonOut {
				return printJSON(a.out, struct {
					BaseURL string                `json:"base_url"`
					Counts  map[string]int        `json:"counts"`
					Timings []metrics.TimingStats `json:"timings"`
				}{a.client.BaseURL(), counts, stats})
			}
			fmt.Fprintf(a.out, "Backend:  %s\n", a.client.BaseURL())
			fmt.Fprintf(a.out, "Groups:   %d\n", counts["groups"])
			for _, b := range model.Branches {
				fmt.Fprintf(a.out, "%-9s %d nodes\n", b.Title()+":", counts[string(b)])
			}
			fmt.Fprintln(a.out)
			printTimings(a.out, stats)
			return nil
		},
	}
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hat version",
		Args:  cobra.NoArgs,
		// no config or client needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "hat %s\n", version.String())
		},
	}
}
