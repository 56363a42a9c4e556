package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sspdb/internal/blob"
	"sspdb/internal/config"
	"sspdb/internal/console"
	"sspdb/internal/core"
	"sspdb/internal/observability/metrics"
	"sspdb/internal/table"
)

const (
	configFlag   = "config"
	dataDirFlag  = "data-dir"
	driverFlag   = "blob-driver"
	logLevelFlag = "log-level"
)

// viperKeys maps the shared flags onto configuration keys.
var viperKeys = map[string]string{
	dataDirFlag:  config.KeyDataDir,
	driverFlag:   config.KeyBlobDriver,
	logLevelFlag: config.KeyLogLevel,
}

func newCommonFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		configFlag: &cobraflags.StringFlag{
			Name:  configFlag,
			Value: "",
			Usage: "Optional config file (yaml, json or toml)",
		},
		dataDirFlag: &cobraflags.StringFlag{
			Name:  dataDirFlag,
			Value: "data",
			Usage: "Directory holding staff.csv, vehicle.csv and weapon.csv",
		},
		driverFlag: &cobraflags.StringFlag{
			Name:  driverFlag,
			Value: string(blob.DriverFilesystem),
			Usage: "Table storage driver (fs, memory, s3)",
		},
		logLevelFlag: &cobraflags.StringFlag{
			Name:  logLevelFlag,
			Value: "info",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

// environment is everything a command needs once configuration is resolved.
type environment struct {
	cfg      config.Config
	logger   *zap.Logger
	store    blob.Store
	registry *core.Registry
	prom     *prometheus.Registry
	recorder *metrics.Recorder
	expvar   *core.ExpvarMetricsRecorder
	closers  []func() error
}

func (e *environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	return errors.Join(errs...)
}

// cli carries the shared flags and streams of one command tree.
type cli struct {
	in      io.Reader
	out     io.Writer
	verbose bool
	flags   map[string]cobraflags.Flag
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, flags: newCommonFlags()}
	root := &cobra.Command{
		Use:   "sspdb",
		Short: "Staff, vehicle and weapon tables kept as CSV files",
		Long: `sspdb stores staff, vehicles and weapons as comma-separated tables.

Run without arguments to start the interactive shell:
  USE STAFF|VEHICLE|WEAPON   open a table
  LIST, NEW, GET "<id>", EDIT "<id>", DELETE "<id>"
  AGE "<id>", SENIORITY "<id>", SUBORDINATES "<id>"   (staff only)
  EXIT`,
		SilenceUsage: true,
		RunE:         c.runShell,
	}
	root.SetIn(in)
	root.SetOut(out)
	cobraflags.RegisterMap(root, c.flags)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(c.newInitCommand(), c.newExportCommand())
	return root
}

// resolve loads configuration with flags taking precedence over the
// environment and the config file.
func (c *cli) resolve(cmd *cobra.Command) (config.Config, error) {
	v := config.New()
	c.bind(cmd, v)
	return config.Load(v, c.flags[configFlag].GetString())
}

func (c *cli) bind(cmd *cobra.Command, v *viper.Viper) {
	for flag, key := range viperKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, c.flags[flag].GetString())
		}
	}
	if c.verbose {
		v.Set(config.KeyLogLevel, "debug")
	}
}

// open builds the storage, services and observability sinks.
func (c *cli) open(ctx context.Context, cmd *cobra.Command) (*environment, error) {
	cfg, err := c.resolve(cmd)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg}
	if env.logger, err = newLogger(cfg.LogLevel); err != nil {
		return nil, err
	}

	env.prom = prometheus.NewRegistry()
	if env.recorder, err = metrics.New(env.prom); err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	env.expvar = core.NewExpvarMetricsRecorder("")

	var tracer core.Tracer
	if cfg.TraceFile != "" {
		f, err := openTraceFile(cfg.TraceFile)
		if err != nil {
			_ = env.Close()
			return nil, err
		}
		env.closers = append(env.closers, f.Close)
		tracer = core.NewJSONTracer(f)
	}

	if env.store, err = blob.Open(ctx, cfg.Blob); err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Blob.Driver, err)
	}

	opts := []core.Option{
		core.WithLogger(core.NewZapLogger(env.logger)),
		core.WithMetricsRecorder(env.expvar),
		core.WithReferenceCheck(cfg.CheckReferences),
	}
	if tracer != nil {
		opts = append(opts, core.WithTracer(tracer))
	}
	env.registry = core.NewRegistry(env.store, []table.Option{table.WithObserver(env.recorder)}, opts...)

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, env.prom, env.logger)
		env.closers = append(env.closers, stop)
	}
	env.logger.Debug("environment ready",
		zap.String("driver", string(cfg.Blob.Driver)),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("references_check", cfg.CheckReferences),
	)
	return env, nil
}

func (c *cli) runShell(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	env, err := c.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	created, err := env.registry.Init(ctx)
	if err != nil {
		return fmt.Errorf("prepare tables: %w", err)
	}
	for _, key := range created {
		env.logger.Info("created table file", zap.String("key", key))
	}
	return console.NewApp(env.registry, c.in, c.out).Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func openTraceFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return f, nil
}

// serveMetrics exposes Prometheus series on /metrics and expvar on
// /debug/vars until the returned stop function runs.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
