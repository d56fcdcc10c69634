package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/automation"
	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/logging"
	"github.com/san-kum/physlab/internal/optim"
	"github.com/san-kum/physlab/internal/physics"
	"github.com/san-kum/physlab/internal/storage"
	"github.com/san-kum/physlab/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	dt         float64
	duration   float64
	configFile string
	preset     string
	noSave     bool
	outFile    string

	// plot and analyze
	column string
	phase  string

	// sweep
	sweepParam     string
	sweepMin       float64
	sweepMax       float64
	sweepSteps     int
	sweepTransient float64
	sweepRecord    float64

	// optimize
	gridParams []string
	metricName string

	// montecarlo
	mcParams  []string
	mcPerturb float64
	mcTrials  int
	mcSeed    int64

	// snapshot
	snapshotAt float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "physlab",
		Short: "interactive physics lab: rotating bodies, fields and charged particles",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(os.Stderr, logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".physlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $"+logging.EnvLevel)

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation and store the trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	configFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot only this column")
	plotCmd.Flags().StringVar(&phase, "phase", "", "phase portrait of two columns, e.g. x,y")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "", "column to analyze (default depends on model)")

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "sample the electrostatic field of the configured charges",
		Args:  cobra.NoArgs,
		RunE:  sampleField,
	}
	fieldCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fieldCmd.Flags().StringVar(&preset, "preset", "", "probe preset supplying the charges")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	configFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListModels() {
				fmt.Printf("  %-10s presets: %s\n", name, strings.Join(config.ListPresets(name), ", "))
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [model]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	configFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "output", "o", "physlab.yaml", "output file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one parameter and chart the values a column settles on",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	configFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "field", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 40, "number of parameter values")
	sweepCmd.Flags().StringVar(&column, "column", "", "recorded column (default depends on model)")
	sweepCmd.Flags().Float64Var(&sweepTransient, "transient", 2, "seconds skipped per point")
	sweepCmd.Flags().Float64Var(&sweepRecord, "record", 5, "seconds recorded per point")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [model]",
		Short: "grid search parameters minimizing a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runOptimize,
	}
	configFlags(optimizeCmd)
	optimizeCmd.Flags().StringSliceVar(&gridParams, "grid", nil, "parameter grid as name=lo:hi:n (repeatable)")
	optimizeCmd.Flags().StringVar(&metricName, "metric", "energy_drift", "metric to minimize")

	compareCmd := &cobra.Command{
		Use:   "compare [model]",
		Short: "run every preset of a model side by side",
		Args:  cobra.ExactArgs(1),
		RunE:  comparePresets,
	}
	compareCmd.Flags().Float64Var(&duration, "time", 0, "override every preset's duration")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a scripted sequence of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run trials with randomly perturbed parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	configFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringSliceVar(&mcParams, "param", nil, "perturbed parameter as name=base (repeatable)")
	monteCarloCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.1, "relative perturbation")
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 for time based)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a column against time, or a phase portrait, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&column, "column", "", "column against time (default depends on model)")
	exportSVGCmd.Flags().StringVar(&phase, "phase", "", "two columns, e.g. x,y")
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [model]",
		Short: "render the live view at a given time to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshot,
	}
	configFlags(snapshotCmd)
	snapshotCmd.Flags().Float64Var(&snapshotAt, "at", 5, "simulated time of the frame")
	snapshotCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, analyzeCmd, fieldCmd,
		liveCmd, snapshotCmd, presetsCmd, modelsCmd, configCmd, sweepCmd, optimizeCmd, compareCmd,
		scriptCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func configFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// explicitly set flags.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if loaded.Model != model {
			return nil, fmt.Errorf("config %s is for model %q, not %q", configFile, loaded.Model, model)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	return cfg, cfg.Validate()
}

func systemParams(sys dynamo.System) map[string]float64 {
	if c, ok := sys.(dynamo.Configurable); ok {
		return c.GetParams()
	}
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", model)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("stopped: %v\n", e)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunInfo{
			Model:    model,
			Preset:   preset,
			Dt:       cfg.Dt,
			Duration: cfg.Duration,
			Params:   systemParams(exp.System()),
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tPRESET\tTIME\tDURATION\tDT\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Model,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.StepsTaken,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(trace.States) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, trace, nil
}

func traceColumn(trace *storage.Trace, label string) ([]float64, error) {
	data, ok := trace.Column(label)
	if !ok {
		return nil, fmt.Errorf("no column %q (have %s)", label, strings.Join(trace.Labels, ", "))
	}
	return data, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(trace.States))

	if phase != "" {
		axes := strings.Split(phase, ",")
		if len(axes) != 2 {
			return fmt.Errorf("--phase wants two columns, got %q", phase)
		}
		xs, err := traceColumn(trace, strings.TrimSpace(axes[0]))
		if err != nil {
			return err
		}
		ys, err := traceColumn(trace, strings.TrimSpace(axes[1]))
		if err != nil {
			return err
		}
		portrait := analysis.NewPhasePortrait(axes[0], xs, axes[1], ys)
		fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
		return nil
	}

	labels := trace.Labels
	if column != "" {
		labels = []string{column}
	} else if len(labels) > 6 {
		labels = labels[:6]
	}

	for _, label := range labels {
		data, err := traceColumn(trace, label)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(label+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, trace)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, trace)
}

// defaultColumn is the oscillating column that best shows each model's
// characteristic period.
func defaultColumn(model string) string {
	switch model {
	case "carousel":
		return "omega_x"
	case "lorentz":
		return "vx"
	}
	return "x"
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	label := column
	if label == "" {
		label = defaultColumn(meta.Model)
	}
	data, err := traceColumn(trace, label)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s, column: %s\n\n", meta.Model, label)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 4 {
		graph := asciigraph.Plot(ps[:len(ps)/4],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+label+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period (spectrum): %.4f s\n", 1.0/freq)
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	if p := analysis.CrossingPeriod(data, trace.Times, mean); p > 0 {
		fmt.Printf("period (crossings): %.4f s\n", p)
	}

	if meta.Model == "lorentz" {
		if p := physics.CyclotronPeriod(meta.Params["mass"], meta.Params["charge"], meta.Params["field"]); p > 0 {
			fmt.Printf("cyclotron period: %.4f s\n", p)
		}
	}
	return nil
}

func sampleField(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset("probe", preset); cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets("probe"))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	samples := physics.SampleGrid(cfg.Field.ChargeSet(), cfg.Field.Grid.Spec())
	logger.Debug("field sampled", "charges", len(cfg.Field.Charges), "samples", len(samples))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "X\tY\tZ\tEX\tEY\tEZ\t|E|")
	for _, s := range samples {
		fmt.Fprintf(w, "%.2f\t%.2f\t%.2f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			s.Point.X(), s.Point.Y(), s.Point.Z(),
			s.Field.X(), s.Field.Y(), s.Field.Z(),
			s.Magnitude,
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	return viz.RunLive(cfg)
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

// spinning restarts the platform whenever it is reset, so every sweep point
// measures a rotating carousel.
type spinning struct {
	*physics.Assembly
}

func (s spinning) Reset() {
	s.Assembly.Reset()
	s.StartRotation(s.InitialOmega)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	sys, err := experiment.NewRegistry().GetModel(cfg)
	if err != nil {
		return err
	}
	if asm, ok := sys.(*physics.Assembly); ok {
		sys = spinning{asm}
	}

	label := column
	if label == "" {
		label = defaultColumn(cfg.Model)
	}
	spec := analysis.SweepSpec{
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Steps:     sweepSteps,
		Column:    label,
		Dt:        cfg.Dt,
		Transient: sweepTransient,
		Record:    sweepRecord,
	}
	logger.Info("sweep started", "model", cfg.Model, "param", spec.Param, "column", spec.Column, "steps", spec.Steps)

	points, err := analysis.Sweep(cmd.Context(), sys, spec)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s over %s in [%g, %g]\n\n", cfg.Model, label, sweepParam, sweepMin, sweepMax)
	fmt.Println(analysis.SweepToASCII(points, 80, 24))
	return nil
}

// parseGrid reads name=lo:hi:n.
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	parts := strings.Split(rng, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %q: bad point count %q", spec, parts[2])
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, g := range gridParams {
		name, values, err := parseGrid(g)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	reg := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		exp, err := experiment.New(cfg.Clone(), reg, nil)
		if err != nil {
			return nil, err
		}
		return exp, exp.SetParams(params)
	}

	best, value, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), build, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6g\n", metricName, value)
	for _, name := range names {
		fmt.Printf("  %s = %.4f\n", name, best[name])
	}
	return nil
}

func comparePresets(cmd *cobra.Command, args []string) error {
	model := args[0]
	names := config.ListPresets(model)
	if len(names) == 0 {
		return fmt.Errorf("no presets for model: %s", model)
	}

	reg := experiment.NewRegistry()
	exps := make([]*experiment.Experiment, 0, len(names))
	for _, name := range names {
		cfg := config.GetPreset(model, name)
		if cmd.Flags().Changed("time") {
			cfg.Duration = duration
		}
		exp, err := experiment.New(cfg, reg, logger.With("preset", name))
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		exps = append(exps, exp)
	}

	// The ensemble runs every preset on the first preset's clock.
	logger.Info("comparing presets", "model", model, "presets", len(names), "duration", exps[0].RunConfig().Duration)
	results, err := experiment.RunAll(cmd.Context(), exps)
	if err != nil {
		return err
	}

	var metricNames []string
	for _, r := range results {
		for name := range r.Metrics {
			if !slices.Contains(metricNames, name) {
				metricNames = append(metricNames, name)
			}
		}
	}
	slices.Sort(metricNames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTEPS\t"+strings.ToUpper(strings.Join(metricNames, "\t")))
	for i, r := range results {
		row := []string{names[i], strconv.Itoa(r.StepsTaken)}
		for _, m := range metricNames {
			if v, ok := r.Metrics[m]; ok {
				row = append(row, fmt.Sprintf("%.4g", v))
			} else {
				row = append(row, "-")
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.Run(cmd.Context(), script, experiment.NewRegistry(), st, logger)
	for _, r := range results {
		fmt.Printf("%s: %d steps", r.Name, r.Result.StepsTaken)
		if r.RunID != "" {
			fmt.Printf(", run id %s", r.RunID)
		}
		fmt.Println()
		printMetrics(r.Result.Metrics)
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if len(mcParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	params := make(map[string]float64, len(mcParams))
	for _, p := range mcParams {
		name, raw, ok := strings.Cut(p, "=")
		base, err := strconv.ParseFloat(raw, 64)
		if !ok || name == "" || err != nil {
			return fmt.Errorf("param %q: want name=base", p)
		}
		params[name] = base
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Params:       params,
		Perturbation: mcPerturb,
		NumTrials:    mcTrials,
		Seed:         mcSeed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%d trials: %d stable, %d unstable\n", len(results), stable, unstable)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}

	xs, ys := trace.Times, []float64(nil)
	if phase != "" {
		axes := strings.Split(phase, ",")
		if len(axes) != 2 {
			return fmt.Errorf("--phase wants two columns, got %q", phase)
		}
		if xs, err = traceColumn(trace, strings.TrimSpace(axes[0])); err != nil {
			return err
		}
		if ys, err = traceColumn(trace, strings.TrimSpace(axes[1])); err != nil {
			return err
		}
	} else {
		label := column
		if label == "" {
			label = defaultColumn(meta.Model)
		}
		if ys, err = traceColumn(trace, label); err != nil {
			return err
		}
	}

	svg := export.TrajectoryToSVG(xs, ys, 800, 600, "#00ffff")
	if svg == "" {
		return fmt.Errorf("run %s: not enough finite points to draw", meta.ID)
	}
	return writeOutput(svg)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	m, err := viz.FromConfig(cfg)
	if err != nil {
		return err
	}
	m.Activate()
	m.Advance(snapshotAt)
	return writeOutput(export.CanvasToSVG(m.Canvas(), 4))
}

func writeOutput(s string) error {
	if outFile == "" {
		_, err := fmt.Println(s)
		return err
	}
	if err := os.WriteFile(outFile, []byte(s), 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)
	return nil
}
