package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPendingCommand lists drafts awaiting approval
func NewPendingCommand(root *RootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List replies awaiting approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.pipeline.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending replies")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tINBOUND\tREPLY")
			for _, p := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.DisplayName, truncate(p.InboundText, 40), truncate(p.Reply, 60))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// NewApproveCommand sends a pending draft
func NewApproveCommand(root *RootFlags) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Send a pending reply, optionally with edited text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline.Approve(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent reply to %s\n", p.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Replacement reply text")
	return cmd
}

// NewDiscardCommand drops a pending draft without sending it
func NewDiscardCommand(root *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <id>",
		Short: "Discard a pending reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline.Discard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded reply to %s\n", p.DisplayName)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
