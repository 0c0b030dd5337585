// Package pipeline runs the batch pass: load the three sources, join,
// compute peer statistics, evaluate the six detectors sequentially, and
// write the report. Sources load concurrently; everything after the join
// runs strictly one stage at a time so peak resident memory stays close
// to a single stage's working set.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/config"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/ingest"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/progress"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/report"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/signal"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/stats"
)

// Options configures a single pipeline run. SpendingPath and LEIEPath are
// required; NPPESPath may be empty, in which case only the exclusion
// detector runs.
type Options struct {
	SpendingPath string
	LEIEPath     string
	NPPESPath    string
	OutputPath   string

	Config     config.Config
	Progress   progress.Manager
	UseStdGzip bool
}

// Summary holds the run's outcome alongside the written report.
type Summary struct {
	Report          *report.Report
	RowsRead        int64
	RowsRejected    int64
	FailedDetectors []string
	Elapsed         time.Duration
}

// Run executes the full pipeline and writes the report to
// opts.OutputPath. The report file is only ever written after all
// detectors have completed; a failed run leaves no partial output.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	mgr := opts.Progress
	if mgr == nil {
		mgr = &progress.NoopManager{}
	}

	detectors := signal.All()
	hasRegistry := opts.NPPESPath != ""
	stageCount := 3 + 2 + len(detectors) + 1 // loads, join+peers, detectors, report
	stage := 0
	nextTracker := func(name string) progress.Tracker {
		t := mgr.NewTracker(stage, stageCount, name)
		stage++
		return t
	}

	// Load stages: the three sources are independent files, so they are
	// scanned concurrently. The spending scan dominates the wall clock;
	// the exclusion list and registry ride along.
	spendingT := nextTracker("scan spending")
	leieT := nextTracker("load exclusion list")
	registryT := nextTracker("load registry")

	var (
		spending *ingest.SpendingAggregate
		leie     *ingest.LEIEResult
		registry *ingest.NPPESResult
		loadErr  [3]error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		spending, loadErr[0] = loadSpending(ctx, opts, spendingT)
	}()
	go func() {
		defer wg.Done()
		leie, loadErr[1] = loadLEIE(ctx, opts, leieT)
	}()
	if hasRegistry {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry, loadErr[2] = loadNPPES(ctx, opts, registryT)
		}()
	} else {
		registryT.LogWarning("no registry input; only the exclusion detector will run")
		registryT.Done()
	}
	wg.Wait()
	for _, err := range loadErr {
		if err != nil {
			return nil, err
		}
	}

	rowsRead := spending.RowsRead + leie.RowsRead
	rowsRejected := spending.RowsRejected + leie.RowsRejected
	if registry != nil {
		rowsRead += registry.RowsRead
		rowsRejected += registry.RowsRejected
	}

	// Stage: join. The raw loader working sets are released here; only
	// the joined dataset survives into detection.
	var ds *join.Dataset
	{
		t := nextTracker("join sources")
		t.SetStage("joining")
		ds = join.Build(spending, leie.Records, registry)
		spending, leie, registry = nil, nil, nil
		t.SetCounter("providers", int64(len(ds.Providers)))
		t.Done()
	}

	// Stage: peer group statistics.
	var peers *stats.PeerIndex
	{
		t := nextTracker("peer group stats")
		t.SetStage("computing")
		peers = stats.Build(ds, opts.Config.MinPeerGroupSize)
		t.SetCounter("groups", int64(len(peers.Groups)))
		t.Done()
	}

	in := signal.Input{
		Dataset:       ds,
		Peers:         peers,
		Config:        opts.Config,
		ReferenceDate: referenceDate(opts.Config, ds),
	}

	// Detector stages: sequential for memory, isolated for resilience. A
	// failing detector is recorded and skipped; the rest still run.
	var allSignals []signal.Signal
	signalCounts := make(map[string]int, len(detectors))
	var failed []string
	completed := 0

	for _, d := range detectors {
		t := nextTracker("signal: " + d.Name)
		if d.NeedsRegistry && !hasRegistry {
			signalCounts[d.Name] = 0
			t.SetStage("skipped (no registry)")
			t.Done()
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t.SetStage("evaluating")
		sigs, err := runDetector(d, in)
		if err != nil {
			failed = append(failed, d.Name)
			signalCounts[d.Name] = 0
			t.LogWarning(err.Error())
			t.Done()
			continue
		}
		completed++
		signalCounts[d.Name] = len(sigs)
		allSignals = append(allSignals, sigs...)
		t.SetCounter("flags", int64(len(sigs)))
		t.Done()
	}

	// Stage: report. Atomic write only after every detector has finished.
	rep := report.Build(ds, allSignals, signalCounts, completed)
	{
		t := nextTracker("write report")
		t.SetStage("writing")
		if err := report.Write(opts.OutputPath, rep); err != nil {
			return nil, err
		}
		t.Done()
	}
	mgr.Wait()

	return &Summary{
		Report:          rep,
		RowsRead:        rowsRead,
		RowsRejected:    rowsRejected,
		FailedDetectors: failed,
		Elapsed:         time.Since(start),
	}, nil
}

// runDetector isolates one detector evaluation: a panic inside a detector
// becomes an error for that detector alone, never taking down the run.
func runDetector(d signal.Detector, in signal.Input) (sigs []signal.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sigs = nil
			err = fmt.Errorf("detector %s failed: %v", d.Name, r)
		}
	}()
	return d.Run(in), nil
}

// referenceDate anchors the escalation lookback: the configured date when
// set, otherwise the first day after the last observed spending month.
func referenceDate(cfg config.Config, ds *join.Dataset) time.Time {
	if t, ok := cfg.ParsedReferenceDate(); ok {
		return t
	}
	if len(ds.Providers) == 0 {
		return time.Now().UTC()
	}
	return ds.LastMonth.Add(1).Time()
}

func loadSpending(ctx context.Context, opts Options, t progress.Tracker) (*ingest.SpendingAggregate, error) {
	t.SetStage("scanning")
	var rows int64
	agg, err := ingest.LoadSpending(ctx, opts.SpendingPath, ingest.SpendingOptions{
		UseStdGzip: opts.UseStdGzip,
		OnRow: func() {
			rows++
			if rows%100_000 == 0 {
				t.SetCounter("rows", rows)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("loading spending data: %w", err)
	}
	if agg.RowsRejected > 0 {
		t.LogWarning(fmt.Sprintf("%d malformed spending rows dropped", agg.RowsRejected))
	}
	if len(agg.Providers) == 0 {
		return nil, fmt.Errorf("spending data %s contains no valid rows", opts.SpendingPath)
	}
	t.Done()
	return agg, nil
}

func loadLEIE(ctx context.Context, opts Options, t progress.Tracker) (*ingest.LEIEResult, error) {
	t.SetStage("loading")
	leie, err := ingest.LoadLEIE(ctx, opts.LEIEPath, opts.UseStdGzip)
	if err != nil {
		return nil, fmt.Errorf("loading exclusion list: %w", err)
	}
	if leie.RowsRejected > 0 {
		t.LogWarning(fmt.Sprintf("%d malformed exclusion rows dropped", leie.RowsRejected))
	}
	t.SetCounter("exclusions", int64(len(leie.Records)))
	t.Done()
	return leie, nil
}

func loadNPPES(ctx context.Context, opts Options, t progress.Tracker) (*ingest.NPPESResult, error) {
	t.SetStage("loading")
	var rows int64
	registry, err := ingest.LoadNPPES(ctx, opts.NPPESPath, opts.UseStdGzip, func() {
		rows++
		if rows%100_000 == 0 {
			t.SetCounter("rows", rows)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	if registry.RowsRejected > 0 {
		t.LogWarning(fmt.Sprintf("%d malformed registry rows dropped", registry.RowsRejected))
	}
	t.SetCounter("providers", int64(len(registry.Records)))
	t.Done()
	return registry, nil
}
