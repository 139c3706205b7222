package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// NewUsageCommand prints cumulative token usage
func NewUsageCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show cumulative token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(cmd.OutOrStdout(), a.usage.Totals(cmd.Context()))
		},
	}
}

// NewStatsCommand prints lifetime counters and, optionally, recent decisions
func NewStatsCommand(root *RootFlags) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			counters, err := a.repos.Stats.All(cmd.Context())
			if err != nil {
				return err
			}
			if recent <= 0 {
				return printJSON(cmd.OutOrStdout(), counters)
			}
			decisions, err := a.repos.Decisions.Recent(recent)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"counters":  counters,
				"decisions": decisions,
			})
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, "Also print this many recent decisions")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
