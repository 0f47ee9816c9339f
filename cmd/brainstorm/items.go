package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
)

func newItemsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List and edit the reference lists",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "list [collection]",
			Short:     "Show one or both collections sorted by name",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: collectionNames(),
			RunE: func(cmd *cobra.Command, args []string) error {
				cols := domain.Collections()
				if len(args) == 1 {
					col, err := domain.ParseCollection(args[0])
					if err != nil {
						return err
					}
					cols = []domain.Collection{col}
				}
				return c.withRuntime(cmd, func(rt *runtime) error {
					var res app.Result
					for _, col := range cols {
						var err error
						res, err = rt.disp.Dispatch(cmd.Context(), app.Action{Kind: app.ActionRefresh, Collection: col})
						if err != nil {
							return err
						}
					}
					for i, col := range cols {
						if i > 0 {
							fmt.Fprintln(cmd.OutOrStdout())
						}
						printCollection(cmd.OutOrStdout(), res.View, col)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <collection> <name>",
			Short: "Add an entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.dispatchAndPrint(cmd, app.Action{Kind: app.ActionAddItem, Collection: domain.Collection(args[0]), Name: args[1]})
			},
		},
		&cobra.Command{
			Use:   "rename <collection> <id> <new-name>",
			Short: "Rename an entry",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.dispatchAndPrint(cmd, app.Action{Kind: app.ActionRenameItem, Collection: domain.Collection(args[0]), ID: args[1], Name: args[2]})
			},
		},
		&cobra.Command{
			Use:   "remove <collection> <id>",
			Short: "Delete an entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.dispatchAndPrint(cmd, app.Action{Kind: app.ActionRemoveItem, Collection: domain.Collection(args[0]), ID: args[1]})
			},
		},
	)
	return cmd
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty collections with a starter set of entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(rt *runtime) error {
				ctx := cmd.Context()
				for _, col := range domain.Collections() {
					items, err := rt.svc.Refresh(ctx, col)
					if err != nil {
						return err
					}
					if len(items) > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, skipped\n", col.Label(), len(items))
						continue
					}
					for _, name := range domain.DefaultSeeds[col] {
						if _, err := rt.svc.Add(ctx, col, name); err != nil {
							return err
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: seeded %d entries\n", col.Label(), len(domain.DefaultSeeds[col]))
				}
				return nil
			})
		},
	}
}

func (c *cli) withRuntime(cmd *cobra.Command, fn func(rt *runtime) error) error {
	rt, err := c.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			c.logger.Warnf("Close store: %v", err)
		}
	}()
	return fn(rt)
}

func (c *cli) dispatchAndPrint(cmd *cobra.Command, a app.Action) error {
	if _, err := domain.ParseCollection(string(a.Collection)); err != nil {
		return err
	}
	return c.withRuntime(cmd, func(rt *runtime) error {
		res, err := rt.disp.Dispatch(cmd.Context(), a)
		if err != nil {
			return err
		}
		if res.Item != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %q\n", res.Item.ID, res.Item.Name)
		}
		printCollection(cmd.OutOrStdout(), res.View, a.Collection)
		return nil
	})
}

func printCollection(w io.Writer, v app.View, col domain.Collection) {
	cv, _ := v.Collection(col)
	fmt.Fprintf(w, "%s (%d)\n", cv.Label, len(cv.Rows))
	for _, r := range cv.Rows {
		fmt.Fprintf(w, "  %-36s  %s\n", r.ID, r.Name)
	}
}

func collectionNames() []string {
	var out []string
	for _, col := range domain.Collections() {
		out = append(out, string(col))
	}
	return out
}
