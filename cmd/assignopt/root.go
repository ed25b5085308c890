package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quboassign/internal/config"
	"quboassign/internal/dataset"
	"quboassign/internal/dataset/csvdir"
	"quboassign/internal/events"
	"quboassign/internal/logging"
	"quboassign/internal/metrics"
	"quboassign/internal/opt"
	"quboassign/internal/store"
)

type globalFlags struct {
	ConfigFile string
	EnvFile    string
	Output     string // table | json
	Strategy   string
	Seed       int64
}

var (
	flags  globalFlags
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "assignopt",
	Short: "Warehouse-to-customer assignment via QUBO sampling",
	Long: `assignopt builds a QUBO for assigning customers to warehouses, maps it to
an Ising Hamiltonian for an external sampler, and decodes and repairs the
returned bitstrings into feasible assignments.

Problems are read from a YAML/JSON document or from a directory holding
warehouses.csv and customers.csv.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(flags.ConfigFile); err != nil {
			return err
		}
		if err = cfg.ApplyEnv(flags.EnvFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("strategy") {
			cfg.Engine.Strategy = flags.Strategy
		}
		if cmd.Flags().Changed("seed") {
			cfg.Engine.Seed = flags.Seed
		}
		if err = cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.New(cfg.Log)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if cfg.Metrics.Textfile != "" {
			return metrics.WriteTextfile(cfg.Metrics.Textfile, metrics.Registry)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigFile, "config", "c", "", "YAML config file")
	pf.StringVar(&flags.EnvFile, "env-file", ".env", "dotenv file with ASSIGNOPT_* overrides")
	pf.StringVarP(&flags.Output, "output", "o", "table", "output format: table|json")
	pf.StringVar(&flags.Strategy, "strategy", "", "auto|sampler|samples|greedy (overrides config)")
	pf.Int64Var(&flags.Seed, "seed", 0, "seed for clustering and the built-in sampler (overrides config)")

	rootCmd.AddCommand(solveCmd, quboCmd, warmstartCmd, compareCmd, runsCmd, watchCmd, versionCmd)
}

// loadDocument reads a problem from a document file or a CSV directory.
func loadDocument(ctx context.Context, path string) (*dataset.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var src dataset.Source = dataset.FileSource{Path: path}
	if info.IsDir() {
		src = csvdir.Source{Dir: path}
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("problem loaded",
		zap.String("source", src.Name()),
		zap.Int("warehouses", len(doc.Warehouses)),
		zap.Int("customers", len(doc.Customers)),
		zap.Int("samples", len(doc.Samples)))
	return doc, nil
}

// newEngine wires the configured sampler, metrics and progress events.
// Events also go to each extra publisher. The returned func releases the
// event broker.
func newEngine(extra ...events.Publisher) (*opt.Engine, func(), error) {
	pub, closeFn, err := newPublisher()
	if err != nil {
		return nil, nil, err
	}
	e := opt.NewEngine(
		opt.WithLogger(logger),
		opt.WithSampler(cfg.NewSampler()),
		opt.WithMetrics(metrics.Default()),
		opt.WithEvents(events.Multi(append([]events.Publisher{pub}, extra...)...)),
	)
	return e, closeFn, nil
}

func newPublisher() (events.Publisher, func(), error) {
	if cfg.Events.RedisURL == "" {
		return events.Func(func(evt events.Event) {
			logger.Debug("progress", zap.String("run_id", evt.RunID), zap.String("type", evt.Type), zap.Any("data", evt.Data))
		}), func() {}, nil
	}
	b, err := events.NewRedis(cfg.Events.RedisURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("events: %w", err)
	}
	return b, func() { _ = b.Close() }, nil
}

// openStore opens the configured database, or an in-process store whose
// runs last only for this invocation.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

func saveRuns(ctx context.Context, st store.Store, label string, results ...*opt.Result) error {
	for _, res := range results {
		if err := st.SaveRun(ctx, store.NewRun(label, res)); err != nil {
			return err
		}
		logger.Debug("run saved", zap.String("run_id", res.RunID), zap.String("label", label))
	}
	return nil
}
