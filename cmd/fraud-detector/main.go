package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/config"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/pipeline"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/progress"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fraud-detector",
		Short: "Cross-reference Medicaid provider spending against the OIG LEIE and NPPES registry for fraud signals",
	}

	rootCmd.AddCommand(newScanCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newScanCmd() *cobra.Command {
	var (
		spendingPath string
		leiePath     string
		nppesPath    string
		outputPath   string
		configPath   string
		noProgress   bool
		useStdGzip   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run all fraud signal detectors and write the JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			for _, p := range []struct{ flag, path string }{
				{"--spending", spendingPath},
				{"--leie", leiePath},
			} {
				if _, err := os.Stat(p.path); err != nil {
					return fmt.Errorf("input %s %s: %w", p.flag, p.path, err)
				}
			}
			if nppesPath != "" {
				if _, err := os.Stat(nppesPath); err != nil {
					return fmt.Errorf("input --nppes %s: %w", nppesPath, err)
				}
			}

			var mgr progress.Manager
			if noProgress {
				mgr = progress.NewLogManager()
			} else {
				mgr = progress.NewMPBManager()
			}

			// Handle signals
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
				cancel()
			}()

			summary, err := pipeline.Run(ctx, pipeline.Options{
				SpendingPath: spendingPath,
				LEIEPath:     leiePath,
				NPPESPath:    nppesPath,
				OutputPath:   outputPath,
				Config:       cfg,
				Progress:     mgr,
				UseStdGzip:   useStdGzip,
			})
			if err != nil {
				return err
			}

			printSummary(summary)
			if outputPath != "-" {
				fmt.Fprintf(os.Stderr, "Report written to %s\n", outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spendingPath, "spending", "", "Path to Medicaid provider spending dataset (.parquet, .csv, or .csv.gz)")
	cmd.Flags().StringVar(&leiePath, "leie", "", "Path to OIG LEIE exclusion list CSV")
	cmd.Flags().StringVar(&nppesPath, "nppes", "", "Path to NPPES NPI registry CSV (optional; without it only the exclusion detector runs)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "fraud_signals.json", "Output report path (use '-' for stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "Optional YAML file overriding detection thresholds")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Log status lines instead of progress bars")
	cmd.Flags().BoolVar(&useStdGzip, "std-gzip", false, "Use standard library gzip instead of pgzip for .gz inputs")

	cmd.MarkFlagRequired("spending")
	cmd.MarkFlagRequired("leie")

	return cmd
}

// printSummary renders the per-signal flag counts and run totals to stderr.
func printSummary(s *pipeline.Summary) {
	rep := s.Report

	names := make([]string, 0, len(rep.SignalCounts))
	for name := range rep.SignalCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"Signal", "Flags"})
	for _, name := range names {
		t.AppendRow(table.Row{name, rep.SignalCounts[name]})
	}
	t.AppendFooter(table.Row{"flagged providers", rep.ProvidersFlagged})
	t.Render()

	var totalOverpayment float64
	for _, fp := range rep.FlaggedProviders {
		totalOverpayment += float64(fp.Overpayment)
	}

	fmt.Fprintf(os.Stderr, "\nScanned %d providers (%d rows read, %d rejected) in %s\n",
		rep.ProvidersScanned, s.RowsRead, s.RowsRejected, s.Elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Estimated overpayment across flagged providers: $%.2f\n", totalOverpayment)
	if rep.DetectorsCompleted < 6 {
		fmt.Fprintf(os.Stderr, "Detectors completed: %d of 6", rep.DetectorsCompleted)
		if len(s.FailedDetectors) > 0 {
			fmt.Fprintf(os.Stderr, " (failed: %v)", s.FailedDetectors)
		}
		fmt.Fprintln(os.Stderr)
	}
}
