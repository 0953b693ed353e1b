package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"moransim/internal/config"
	"moransim/internal/logging"
	"moransim/internal/metrics"
	"moransim/pkg/moransim"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moranctl",
		Short: "Moran process simulator",
		Long: `moranctl runs spatial Moran birth-death simulations with point mutation
or copy-number alteration genotypes and inspects the recorded runs.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("reports-dir", "reports", "Directory for reports and run artifacts")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory|sqlite (default depends on build tags)")
	rootCmd.PersistentFlags().String("db", "moransim.db", "SQLite database path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRunsCmd(),
		newTrialsCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moranctl version %s\n", version)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured trials",
		Long: `Run loads a YAML configuration, applies MORAN_* environment overrides and
executes every trial. Reports and run artifacts are written under the
reports directory unless the configuration names its own output_dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")
			}
			if cmd.Flags().Changed("run-id") {
				cfg.Run.RunID, _ = cmd.Flags().GetString("run-id")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Run.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Kind, _ = cmd.Flags().GetString("store")
			}
			if cmd.Flags().Changed("db") {
				cfg.Store.DBPath, _ = cmd.Flags().GetString("db")
			}
			if cfg.Reports.OutputDir == "" {
				cfg.Reports.OutputDir, _ = cmd.Flags().GetString("reports-dir")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			m := metrics.New()
			if cfg.Metrics.Addr != "" {
				shutdown, err := serveMetrics(cfg.Metrics.Addr, m)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			client, err := newClient(cmd, cfg.Store.Kind, cfg.Store.DBPath, cfg.Logging.Level, m)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printRunSummary(cmd, summary)
		},
	}
	cmd.Flags().String("config", "", "Path to a YAML configuration file")
	cmd.Flags().String("log-level", "info", "Log level: info|debug|trace|warn|error")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().String("run-id", "", "Run id (generated when empty)")
	cmd.Flags().Int64("seed", 1, "Master random seed")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			client, err := newClient(cmd, "", "", "", nil)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), moransim.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tMODEL\tTOPOLOGY\tSIZE\tTRIALS\tSEED\tFITNESS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.4f\n",
					r.RunID, r.CreatedAtUTC, r.Model, r.Topology, r.PopulationSize, r.Trials, r.Seed, r.FinalMeanFitness)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	return cmd
}

func newTrialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials [run-id]",
		Short: "Show the trial summaries of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			latest, _ := cmd.Flags().GetBool("latest")
			req := moransim.TrialsRequest{Latest: latest}
			if len(args) == 1 {
				req.RunID = args[0]
			}
			client, err := newClient(cmd, "", "", "", nil)
			if err != nil {
				return err
			}
			defer client.Close()

			trials, err := client.Trials(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printTrials(cmd, trials)
		},
	}
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	return cmd
}

// newClient resolves store settings from the persistent flags unless the
// caller already has them.
func newClient(cmd *cobra.Command, storeKind, dbPath, level string, m *metrics.Metrics) (*moransim.Client, error) {
	if storeKind == "" {
		storeKind, _ = cmd.Flags().GetString("store")
	}
	if dbPath == "" {
		dbPath, _ = cmd.Flags().GetString("db")
	}
	reportsDir, _ := cmd.Flags().GetString("reports-dir")

	logger := logging.Discard()
	if level != "" {
		logger = logging.NewLogger(level, cmd.ErrOrStderr())
	}
	return moransim.New(moransim.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		ReportsDir: reportsDir,
		Logger:     logger,
		Metrics:    m,
	})
}

func printRunSummary(cmd *cobra.Command, summary moransim.RunSummary) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run_id=%s trials=%d final_mean_fitness=%.6f\n", summary.RunID, len(summary.Trials), summary.FinalMeanFitness)
	fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
	return writeTrialTable(out, summary.Trials)
}

func printTrials(cmd *cobra.Command, trials []moransim.TrialSummary) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(trials)
	}
	return writeTrialTable(cmd.OutOrStdout(), trials)
}

func writeTrialTable(out io.Writer, trials []moransim.TrialSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTEPS\tCLOCK\tFITNESS\tOUTCOME")
	for _, t := range trials {
		outcome := t.Outcome
		if t.Error != "" {
			outcome += ": " + t.Error
		}
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%s\n", t.Trial, t.Steps, t.TimeClock, t.MeanFitness, outcome)
	}
	return w.Flush()
}

func serveMetrics(addr string, m *metrics.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "metrics server:", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
