package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/prompt"
)

func bindSelectionFlags(cmd *cobra.Command, sel *prompt.Selection) {
	f := cmd.Flags()
	f.StringVarP(&sel.Technology, "technology", "t", "", "Technology name")
	f.StringVarP(&sel.TeamFunction, "team-function", "f", "", "Team function name")
	f.StringVarP(&sel.Priority, "priority", "p", "", "Priority: low, medium, high, critical (default medium)")
	f.StringVarP(&sel.Kind, "kind", "k", "", "Item kind (default feature)")
	f.IntVarP(&sel.Count, "count", "n", 0, "Number of items, 1-20 (default 5)")
	f.StringVar(&sel.Context, "context", "", "Extra context for the generator")
	_ = cmd.MarkFlagRequired("technology")
	_ = cmd.MarkFlagRequired("team-function")
}

func newPromptCmd(c *cli) *cobra.Command {
	var sel prompt.Selection
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the brainstorming prompt for a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := prompt.Build(sel)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p)
			return nil
		},
	}
	bindSelectionFlags(cmd, &sel)
	return cmd
}

func newGenerateCmd(c *cli) *cobra.Command {
	var sel prompt.Selection
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Send the prompt for a selection to the generator and print the answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.disp.Dispatch(cmd.Context(), app.Action{Kind: app.ActionGenerate, Selection: sel})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Output)
				return nil
			})
		},
	}
	bindSelectionFlags(cmd, &sel)
	return cmd
}
