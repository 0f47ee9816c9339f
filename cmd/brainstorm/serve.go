package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/dashboard"
	"github.com/jaakkos/brainstorm/internal/metrics"
	"github.com/jaakkos/brainstorm/internal/tools/catalog"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the brainstorm page, JSON API, MCP endpoint and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.pol.SetHTTPPort(port)
			}
			ctx, cancel := signalContext(cmd.Context(), c.logger)
			defer cancel()
			return c.withRuntime(cmd, func(rt *runtime) error {
				return c.serve(ctx, rt)
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config, 0 picks a free port)")
	return cmd
}

func (c *cli) serve(ctx context.Context, rt *runtime) error {
	c.logger.Infof("Starting brainstorm %s (store=%s)", Version, c.pol.StoreDriver())
	if err := rt.svc.RefreshAll(ctx); err != nil {
		// The page shows the error state; keep serving so the store can come back.
		c.logger.Warnf("Initial refresh: %v", err)
	}

	stopWatch := c.startWatcher(ctx, rt.svc)
	defer stopWatch()

	mcpServer := newMCPServer(rt.disp, c.logger)
	port, httpShutdown, err := startHTTPServer(c.pol.HTTPPort(), rt, mcpServer, c.logger)
	if err != nil {
		return err
	}
	if err := writePIDFile(c.pol.PIDFile(), port); err != nil {
		c.logger.Warnf("PID file: %v", err)
	}
	defer removePIDFile(c.pol.PIDFile())
	<-ctx.Done()
	httpShutdown()
	c.logger.Info("Server stopped")
	return nil
}

// startWatcher reconciles after writes from other processes. Returns a stop func.
func (c *cli) startWatcher(ctx context.Context, svc *app.CatalogService) func() {
	if !c.pol.WatchEnabled() {
		return func() {}
	}
	w := app.NewWatcher(c.pol.SignalFilePath(), svc, c.logger, app.WithPollInterval(c.pol.WatchPollInterval()))
	go w.Start(ctx)
	return w.Stop
}

func newMCPServer(disp *app.Dispatcher, logger *zap.SugaredLogger) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result *mcp.CallToolResult) {
		if message != nil {
			logger.Debugf("Calling tool: %s", message.Params.Name)
		}
	})
	s := server.NewMCPServer(
		"brainstorm",
		Version,
		server.WithInstructions("Maintain the technologies and team-functions reference lists and brainstorm backlog items. Use list_items to see ids before rename_item or remove_item."),
		server.WithHooks(hooks),
		server.WithResourceCapabilities(false, false),
	)
	catalog.Register(s, disp, logger)
	return s
}

// startHTTPServer serves in the background and returns the bound port and a
// shutdown func. It uses net.Listen so port 0 picks a free port.
func startHTTPServer(port int, rt *runtime, mcpServer *server.MCPServer, logger *zap.SugaredLogger) (int, func(), error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, nil, fmt.Errorf("http listen: %w", err)
	}
	actualPort := ln.Addr().(*net.TCPAddr).Port
	baseURL := fmt.Sprintf("http://localhost:%d", actualPort)

	logger.Infof("HTTP server on :%d", actualPort)
	logger.Infof("  Page:     %s/", baseURL)
	logger.Infof("  MCP:      %s/mcp", baseURL)
	logger.Infof("  Metrics:  %s/metrics", baseURL)

	mux := newMux(rt, mcpServer, actualPort, logger)
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	return actualPort, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("HTTP shutdown error: %v", err)
		}
	}, nil
}

func newMux(rt *runtime, mcpServer *server.MCPServer, port int, logger *zap.SugaredLogger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	mux.Handle("/metrics", metrics.Handler(rt.registry))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"port":     port,
			"revision": rt.svc.View().Revision,
		})
	})
	dashboard.NewHandler(rt.disp, logger).RegisterRoutes(mux)
	return mux
}

// signalContext is cancelled on SIGINT or SIGTERM. SIGHUP is ignored so the
// server survives nohup and launchd.
func signalContext(parent context.Context, logger *zap.SugaredLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signal.Ignore(syscall.SIGHUP)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
