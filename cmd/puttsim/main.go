package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/puttsim/internal/cache"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/service"
	"github.com/san-kum/puttsim/internal/storage"
	"github.com/san-kum/puttsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	presetName string
	formula    string
	verbose    bool

	from      vecFlag
	to        vecFlag
	shot      vecFlag
	radius    float64
	shotList  string
	waypoints string
	aim       bool
	save      bool
	plotConv  bool
	playPlan  bool

	// live view
	live      bool
	frameRate int
	speed     int
	theme     string

	evalX, evalZ, evalT float64
	evalAux             []float64

	workers    int
	paramName  string
	paramMin   float64
	paramMax   float64
	numSteps   int
	perturb    float64
	numTrials  int
	seed       int64
	exportPath string
	svgPath    string
	addr       string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "puttsim",
		Short:         "putting green simulator and shot solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMenu,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".puttsim", "data directory")
	pf.StringVar(&configFile, "config", "", "course config file (yaml)")
	pf.StringVar(&presetName, "preset", "", "use a preset course")
	pf.StringVar(&formula, "formula", "", "override the course height formula")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log solver progress to stderr")

	evalCmd := &cobra.Command{
		Use:   "eval [formula]",
		Short: "evaluate a height formula and its gradient",
		Args:  cobra.ExactArgs(1),
		RunE:  runEval,
	}
	evalCmd.Flags().Float64Var(&evalX, "x", 0, "x coordinate")
	evalCmd.Flags().Float64Var(&evalZ, "z", 0, "z coordinate")
	evalCmd.Flags().Float64Var(&evalT, "t", 0, "value of time")
	evalCmd.Flags().Float64SliceVar(&evalAux, "aux", nil, "values bound to a, b, c, ...")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "roll one shot to rest and store the run",
		RunE:  runSimulate,
	}
	runCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	runCmd.Flags().Var(&shot, "shot", "launch velocity vx,vz")
	_ = runCmd.MarkFlagRequired("shot")

	shotCmd := &cobra.Command{
		Use:   "shot",
		Short: "find the launch velocity that stops the ball on a target",
		RunE:  runShot,
	}
	shotCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	shotCmd.Flags().Var(&to, "to", "target position x,z (default course target)")
	shotCmd.Flags().BoolVar(&plotConv, "plot", false, "plot landing error per iteration")
	shotCmd.Flags().BoolVar(&save, "save", false, "store the roll of the best shot")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "plan a sequence of shots to the target",
		RunE:  runPlan,
	}
	planCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	planCmd.Flags().Var(&to, "to", "target position x,z (default course target)")
	planCmd.Flags().Float64Var(&radius, "radius", 0, "acceptance radius (default course target radius)")
	planCmd.Flags().BoolVar(&playPlan, "play", false, "play the plan back frame by frame")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "play shots back frame by frame",
		RunE:  runPlay,
	}
	playCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	playCmd.Flags().StringVar(&shotList, "shots", "", "shots to play, e.g. 2,0;1,-1")
	playCmd.Flags().StringVar(&waypoints, "waypoints", "", "positions to aim at in turn, e.g. 3,3;5,5")
	playCmd.Flags().BoolVar(&aim, "aim", false, "aim at the course target")
	playCmd.Flags().BoolVar(&save, "save", true, "store the played trajectory")
	playCmd.Flags().BoolVar(&live, "live", false, "watch the playback in the terminal")
	playCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate (live)")
	playCmd.Flags().IntVar(&speed, "speed", 4, "physics frames per screen frame (live)")
	playCmd.Flags().StringVar(&theme, "theme", "", fmt.Sprintf("color theme %v (live)", viz.ThemeNames()))

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "parallel steps (default GOMAXPROCS)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "roll one shot across a range of a physics parameter",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&paramName, "param", "grass_kinetic", "parameter name")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1.5, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")
	sweepCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	sweepCmd.Flags().Var(&shot, "shot", "launch velocity vx,vz")
	_ = sweepCmd.MarkFlagRequired("shot")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb a shot at random and count how often it holes",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().Var(&from, "from", "ball position x,z (default course start)")
	mcCmd.Flags().Var(&shot, "shot", "launch velocity vx,vz")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "largest change per velocity axis")
	mcCmd.Flags().IntVar(&numTrials, "trials", 100, "number of trials")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	_ = mcCmd.MarkFlagRequired("shot")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or draw it as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "draw the course and ball path to this file")
	exportCmd.Flags().StringVar(&theme, "theme", "", "color theme for --svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset courses",
		RunE:  listPresets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	rootCmd.AddCommand(evalCmd, runCmd, shotCmd, planCmd, playCmd, batchCmd, sweepCmd, mcCmd, listCmd, plotCmd, exportCmd, presetsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// vecFlag parses "x,z".
type vecFlag dynamo.Vec2

func (v *vecFlag) String() string { return fmt.Sprintf("%g,%g", v.X, v.Z) }
func (v *vecFlag) Type() string   { return "x,z" }

func (v *vecFlag) Set(s string) error {
	p, err := parseVec(s)
	if err != nil {
		return err
	}
	*v = vecFlag(p)
	return nil
}

func parseVec(s string) (dynamo.Vec2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return dynamo.Vec2{}, fmt.Errorf("want x,z, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return dynamo.Vec2{}, err
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return dynamo.Vec2{}, err
	}
	return dynamo.Vec2{X: x, Z: z}, nil
}

// parseVecs parses a semicolon separated list of x,z pairs.
func parseVecs(s string) ([]dynamo.Vec2, error) {
	var out []dynamo.Vec2
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := parseVec(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// vecOr returns the flag value when it was given on the command line.
func vecOr(cmd *cobra.Command, name string, v vecFlag, def dynamo.Vec2) dynamo.Vec2 {
	if cmd.Flags().Changed(name) {
		return dynamo.Vec2(v)
	}
	return def
}

func logger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.Ltime)
	}
	return log.New(io.Discard, "", 0)
}

// loadConfig resolves the course: a config file wins over a preset, the
// environment over both, and --formula over everything.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.ApplyEnv()
	if formula != "" {
		cfg.Course.Formula = formula
	}
	return cfg, cfg.Validate()
}

func newService() (*service.Service, cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := cache.Open(cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	svc, err := service.New(cfg, c, logger())
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return svc, c, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	return st, st.Init()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func field(label string, format string, args ...any) {
	fmt.Println(labelStyle.Render(label) + fmt.Sprintf(format, args...))
}

func vec(v dynamo.Vec2) string { return fmt.Sprintf("(%.4f, %.4f)", v.X, v.Z) }
