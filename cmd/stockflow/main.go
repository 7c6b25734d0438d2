package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/engine"
	"github.com/san-kum/stockflow/internal/export"
	"github.com/san-kum/stockflow/internal/sd"
	"github.com/san-kum/stockflow/internal/storage"
	"github.com/san-kum/stockflow/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	modelsDir string
	// Run configuration
	configFile string
	scenario   string
	setParams  []string
	startTime  float64
	stopTime   float64
	dt         float64
	noSave     bool
	// Plot and export selection
	plotVars  string
	svgOut    string
	svgWidth  int
	svgHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stockflow",
		Short: "stock and flow simulation lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to interactive mode when no command given
			return tui.Run(modelsDir)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models", config.DefaultModelsDir, "model definitions directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "named scenario")
	runCmd.Flags().StringArrayVar(&setParams, "set", nil, "parameter override name=value (repeatable)")
	runCmd.Flags().Float64Var(&startTime, "start", 0, "start time")
	runCmd.Flags().Float64Var(&stopTime, "stop", 0, "stop time")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list model definitions",
		RunE:  listModels,
	}

	infoCmd := &cobra.Command{
		Use:   "info [model]",
		Short: "show model structure",
		Args:  cobra.ExactArgs(1),
		RunE:  modelInfo,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [model]",
		Short: "check a model definition",
		Args:  cobra.ExactArgs(1),
		RunE:  validateModel,
	}

	orderCmd := &cobra.Command{
		Use:   "order [model]",
		Short: "show evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE:  showOrder,
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios [model]",
		Short: "list model scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  listScenarios,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotVars, "vars", "", "comma-separated variables (default: stocks)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render run results as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&plotVars, "vars", "", "comma-separated variables (default: stocks)")
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output file (default: <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 900, "chart width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 420, "chart height")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive model explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(modelsDir)
		},
	}

	rootCmd.AddCommand(runCmd, modelsCmd, infoCmd, validateCmd, orderCmd, scenariosCmd,
		listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadModel resolves a model by file path or by name under the models
// directory.
func loadModel(arg string) (*sd.Model, error) {
	if _, err := os.Stat(arg); err == nil {
		return sd.Load(arg)
	}
	return sd.Load(filepath.Join(modelsDir, arg+".json"))
}

func runModel(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// CLI flags override the config file
	if cmd.Flags().Changed("scenario") {
		cfg.Scenario = scenario
	}
	if cmd.Flags().Changed("start") {
		cfg.Time.Start = &startTime
	}
	if cmd.Flags().Changed("stop") {
		cfg.Time.Stop = &stopTime
	}
	if cmd.Flags().Changed("dt") {
		cfg.Time.Dt = &dt
	}
	for _, kv := range setParams {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("bad --set %q, want name=value", kv)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("bad --set %q: %w", kv, err)
		}
		cfg.Parameters[name] = val
	}

	params, tc, err := cfg.Resolve(m)
	if err != nil {
		return err
	}

	r, err := engine.New(m)
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", m.Name)
	begin := time.Now()
	tr, err := r.Run(context.Background(), params, tc)
	if err != nil {
		return err
	}
	elapsed := time.Since(begin)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d (t=%g..%g, dt=%g)\n", len(tr.Times), tc.Start, tc.Stop, tc.Dt)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(m.Name, cfg.Scenario, params, tc, tr)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nfinal values:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range tr.Names {
		series := tr.At(name)
		fmt.Fprintf(w, "  %s\t%.6g\n", name, series[len(series)-1])
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	paths, err := sd.ListDir(modelsDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("no models found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTOCKS\tFLOWS\tAUX\tPARAMS\tHORIZON\tTITLE")
	for _, p := range paths {
		m, err := sd.Load(p)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%v\n", filepath.Base(p), err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%g..%g/%g\t%s\n",
			m.Name, len(m.Stocks), len(m.Flows), len(m.Auxes), len(m.Parameters),
			m.Time.Start, m.Time.Stop, m.Time.Dt, m.Title)
	}
	return w.Flush()
}

func modelInfo(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s", m.Name)
	if m.Title != "" {
		fmt.Printf(" - %s", m.Title)
	}
	fmt.Println()
	if m.Notes != "" {
		fmt.Println(m.Notes)
	}
	fmt.Printf("time: %g..%g dt=%g (%d steps)\n", m.Time.Start, m.Time.Stop, m.Time.Dt, m.Time.Steps())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(m.Parameters) > 0 {
		fmt.Fprintln(w, "\nPARAMETER\tVALUE\tRANGE\tUNITS")
		for _, p := range m.Parameters {
			rng := ""
			if p.Min != nil && p.Max != nil {
				rng = fmt.Sprintf("[%g, %g]", *p.Min, *p.Max)
			}
			fmt.Fprintf(w, "%s\t%g\t%s\t%s\n", p.Name, p.Value, rng, p.Units)
		}
	}
	if len(m.Stocks) > 0 {
		fmt.Fprintln(w, "\nSTOCK\tINITIAL\tINFLOWS\tOUTFLOWS")
		for _, s := range m.Stocks {
			fmt.Fprintf(w, "%s\t%g\t%s\t%s\n", s.Name, s.Initial,
				strings.Join(s.Inflows, ","), strings.Join(s.Outflows, ","))
		}
	}
	if len(m.Flows) > 0 {
		fmt.Fprintln(w, "\nFLOW\tEQUATION")
		for _, f := range m.Flows {
			fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Equation)
		}
	}
	if len(m.Auxes) > 0 {
		fmt.Fprintln(w, "\nAUXILIARY\tEQUATION")
		for _, a := range m.Auxes {
			fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Equation)
		}
	}
	if len(m.Lookups) > 0 {
		fmt.Fprintln(w, "\nLOOKUP\tPOINTS")
		for _, l := range m.Lookups {
			fmt.Fprintf(w, "%s\t%d\n", l.Name, len(l.Points))
		}
	}
	return w.Flush()
}

func validateModel(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}
	if _, err := engine.New(m); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d variables)\n", m.Name, len(m.VarNames()))
	return nil
}

func showOrder(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}
	r, err := engine.New(m)
	if err != nil {
		return err
	}
	for i, name := range r.Order() {
		fmt.Printf("%3d  %s\n", i+1, name)
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}
	if len(m.Scenarios) == 0 {
		fmt.Printf("no scenarios for model: %s\n", m.Name)
		return nil
	}
	for _, s := range m.Scenarios {
		fmt.Printf("%s", s.Name)
		if s.Doc != "" {
			fmt.Printf("  (%s)", s.Doc)
		}
		fmt.Println()
		names := make([]string, 0, len(s.Overrides))
		for name := range s.Overrides {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s = %g\n", name, s.Overrides[name])
		}
	}
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
	fmt.Fprintln(w, "ID\tMODEL\tSCENARIO\tTIME\tHORIZON\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g..%g\t%g\t%d\n",
			run.ID,
			run.Model,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Start,
			run.Stop,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

// selectVars picks the variables to render: the --vars flag if given,
// otherwise the run's stocks (first columns of the series).
func selectVars(tr *sd.Trajectory, max int) ([]string, error) {
	if plotVars != "" {
		var names []string
		for _, name := range strings.Split(plotVars, ",") {
			name = strings.TrimSpace(name)
			if tr.At(name) == nil {
				return nil, fmt.Errorf("unknown variable: %s (have %s)", name, strings.Join(tr.Names, ", "))
			}
			names = append(names, name)
		}
		return names, nil
	}
	names := tr.Names
	if len(names) > max {
		names = names[:max]
	}
	return names, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(tr.Times))

	names, err := selectVars(tr, 6)
	if err != nil {
		return err
	}
	for _, name := range names {
		graph := asciigraph.Plot(tr.At(name),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	return export.CSV(os.Stdout, tr)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	tc := sd.TimeConfig{Start: meta.Start, Stop: meta.Stop, Dt: meta.Dt}
	return export.JSON(os.Stdout, meta.Model, meta.Scenario, meta.Parameters, tc, tr)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	names, err := selectVars(tr, 6)
	if err != nil {
		return err
	}
	svg := export.SVG(tr, names, svgWidth, svgHeight)

	out := svgOut
	if out == "" {
		out = meta.ID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
