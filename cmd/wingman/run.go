package main

import (
	"github.com/spf13/cobra"
)

// NewPassCommand runs one reply pass and prints its summary
func NewPassCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pass",
		Short: "Run one reply pass over current conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.RunPass(cmd.Context(), "manual")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// NewOutreachCommand sends openers to matches that have no messages yet
func NewOutreachCommand(root *RootFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "outreach",
		Short: "Send openers to silent matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.RunOutreach(cmd.Context(), count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Maximum openers to send (0 uses the outreach_count setting)")
	return cmd
}

// NewSwipeCommand runs one swipe session
func NewSwipeCommand(root *RootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "swipe",
		Short: "Run one swipe session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.SwipeSession(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum profiles to swipe (0 uses the swipe_limit setting)")
	return cmd
}
