package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRejectCommand excludes a conversation from all future passes
func NewRejectCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <conversation-id>",
		Short: "Stop replying to a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.MarkRejected(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", args[0])
			return nil
		},
	}
}

// NewUnrejectCommand lifts a rejection
func NewUnrejectCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "unreject <conversation-id>",
		Short: "Resume replying to a rejected conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.UnmarkRejected(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unrejected %s\n", args[0])
			return nil
		},
	}
}
