package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context(), c.logger)
			defer cancel()
			return c.withRuntime(cmd, func(rt *runtime) error {
				if err := rt.svc.RefreshAll(ctx); err != nil {
					c.logger.Warnf("Initial refresh: %v", err)
				}
				stopWatch := c.startWatcher(ctx, rt.svc)
				defer stopWatch()

				c.logger.Info("Stdio ready")
				stdioSrv := server.NewStdioServer(newMCPServer(rt.disp, c.logger))
				if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
					c.logger.Warnf("Stdio server stopped: %v", err)
				}
				return nil
			})
		},
	}
}
