package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/generate"
	"github.com/jaakkos/brainstorm/internal/metrics"
	"github.com/jaakkos/brainstorm/internal/policy"
	"github.com/jaakkos/brainstorm/internal/repository"
)

// cli carries what PersistentPreRunE resolved for the subcommands.
type cli struct {
	configPath string
	apiKey     string
	verbose    bool

	pol    *policy.Policy
	logger *zap.SugaredLogger
	sync   func()
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "brainstorm",
		Short:         "Reference lists and backlog brainstorming for infrastructure teams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.sync != nil {
				c.sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: $BRAINSTORM_CONFIG)")
	root.PersistentFlags().StringVar(&c.apiKey, "api-key", "", "Generation API key for this session (or set BRAINSTORM_GENAI_API_KEY / GEMINI_API_KEY)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(c),
		newMCPCmd(c),
		newItemsCmd(c),
		newPromptCmd(c),
		newGenerateCmd(c),
		newSeedCmd(c),
		newStatusCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := policy.Load(c.configPath)
	if err != nil {
		return err
	}
	c.pol = policy.New(cfg)
	if c.apiKey != "" {
		c.pol.SetAPIKey(c.apiKey)
	}
	level := c.pol.LogLevel()
	if c.verbose {
		level = zap.DebugLevel
	}
	logger, err := newLogger(c.pol.LogFile(), level)
	if err != nil {
		return err
	}
	c.logger = logger.Sugar()
	c.sync = func() { _ = logger.Sync() }
	return nil
}

// runtime is the wired core shared by every subcommand.
type runtime struct {
	disp     *app.Dispatcher
	svc      *app.CatalogService
	registry *prometheus.Registry
	closer   io.Closer
}

func (r *runtime) Close() error { return r.closer.Close() }

// openRuntime opens the store and builds the service, generator and dispatcher.
func (c *cli) openRuntime(ctx context.Context) (*runtime, error) {
	store, closer, err := repository.NewCollectionStore(ctx, c.pol)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.pol.StoreDriver(), err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	store = metrics.InstrumentStore(store, metrics.NewRecorder(reg))

	svc := app.NewCatalogService(store, c.logger, app.WithSignalFile(c.pol.SignalFilePath()))

	var gen app.Generator
	if c.pol.GenerationEnabled() {
		g := c.pol.GenAI()
		client, err := generate.New(ctx, generate.Config{
			APIKey:  g.APIKey,
			Model:   g.Model,
			BaseURL: g.BaseURL,
			Timeout: c.pol.GenAITimeout(),
		})
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		gen = client
		c.logger.Debugf("Generation enabled (model=%s)", client.Model())
	}

	return &runtime{
		disp:     app.NewDispatcher(svc, gen, c.logger),
		svc:      svc,
		registry: reg,
		closer:   closer,
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "brainstorm "+Version)
		},
	}
}
