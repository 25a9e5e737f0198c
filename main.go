package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/s1dharth-s/qlever/pkg/bench"
	"github.com/s1dharth-s/qlever/pkg/config"
	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/memory"
	"github.com/s1dharth-s/qlever/pkg/metrics"
	"github.com/s1dharth-s/qlever/pkg/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// BenchOptions holds the flags of the bench command.
type BenchOptions struct {
	bench.Options
	GallopThreshold int
	Timeout         time.Duration
	Metrics         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}

// NewRootCommand creates the root command of the join benchmark tool.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "qlever-join",
		Short:         "Join engine with a memory-limited local vocabulary",
		Long:          "Runs and times the join algorithms of the query engine on generated inputs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level (DEBUG|INFO|WARN|ERROR)")

	cmd.AddCommand(NewBenchCommand(opts))
	return cmd
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{Options: bench.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time one join per algorithm and a concurrent batch",
		Long: `Generates random two-column inputs and joins them once along every
path of the join operation (two index scans, scan and table, merge, gallop,
hash). Afterwards a batch of joins runs concurrently against one shared
memory limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), rootOpts, opts, cmd.Flags().Changed("gallop-threshold"))
		},
	}

	cmd.Flags().IntVar(&opts.Rows, "rows", opts.Rows, "rows of the larger input")
	cmd.Flags().IntVar(&opts.Distinct, "distinct", opts.Distinct, "distinct join keys (0: rows/4)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "seed of the input generator")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", opts.Concurrency, "joins in the concurrent batch")
	cmd.Flags().IntVar(&opts.GallopThreshold, "gallop-threshold", config.DefaultGallopThreshold, "size ratio above which sorted inputs are galloped")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "cancel the benchmark after this long")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print the collected prometheus metrics")

	return cmd
}

func runBench(ctx context.Context, w io.Writer, rootOpts *RootOptions, opts *BenchOptions, thresholdSet bool) error {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return err
	}
	if rootOpts.LogLevel != "" {
		cfg.Logging.Level = logging.LogLevel(rootOpts.LogLevel)
	}
	if thresholdSet {
		cfg.Join.GallopThreshold = opts.GallopThreshold
	}

	if err := logging.Init(cfg.Logging); err != nil {
		return err
	}
	defer logging.Close()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	qec, err := execution.NewContext(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	logging.Info("running join benchmark",
		"rows", opts.Rows, "seed", opts.Seed, "gallop_threshold", cfg.Join.GallopThreshold)

	runs, err := bench.RunAll(ctx, qec, opts.Options)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, report("join paths", runs, qec).Render()); err != nil {
		return err
	}

	batch, err := bench.RunBatch(ctx, qec, opts.Options)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, report("concurrent batch", batch, qec).Render()); err != nil {
		return err
	}

	if opts.Metrics {
		return writeMetrics(w, reg)
	}
	return nil
}

func report(title string, runs []bench.Run, qec *execution.Context) ui.Report {
	rep := ui.Report{Title: title}
	var (
		total time.Duration
		peak  memory.Size
	)
	for _, r := range runs {
		rep.Rows = append(rep.Rows, ui.Row{
			Scenario:  r.Name,
			Algorithm: r.Algorithm.String(),
			Expected:  r.Expected.String(),
			Rows:      r.Rows,
			Estimate:  r.Estimate,
			Elapsed:   r.Elapsed,
			Memory:    r.MemoryInUse.String(),
		})
		total += r.Elapsed
		peak = max(peak, r.MemoryInUse)
	}
	rep.Summary = []ui.KeyValue{
		{Key: "joins", Value: strconv.Itoa(len(runs))},
		{Key: "total join time", Value: total.Round(time.Microsecond).String()},
		{Key: "peak memory in use", Value: peak.String() + " of " + qec.Limit.Total().String()},
		{Key: "memory in use after release", Value: qec.Limit.InUse().String()},
	}
	return rep
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
