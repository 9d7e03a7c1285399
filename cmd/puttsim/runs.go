package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/puttsim/internal/api"
	"github.com/san-kum/puttsim/internal/batch"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/export"
	"github.com/san-kum/puttsim/internal/storage"
	"github.com/san-kum/puttsim/internal/viz"
)

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := batch.LoadScenario(args[0])
	if err != nil {
		return err
	}
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()
	st, err := openStore()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	r := batch.NewRunner(svc.Config(), c, logger())
	r.Store = st
	if workers > 0 {
		r.Workers = workers
	}

	fmt.Println(titleStyle.Render(scenario.Name))
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	begin := time.Now()
	results, err := r.RunScenario(ctx, scenario)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tACTION\tSHOTS\tRESTS AT\tDEVIATION\tITERS\tOK\tRUN")
	for _, res := range results {
		ok := "-"
		if res.Converged {
			ok = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.4f\t%d\t%s\t%s\n",
			res.Index+1, res.Name, res.Action, len(res.Shots), vec(res.Landing), res.Deviation, res.Iterations, ok, res.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d steps in %v\n", len(results), time.Since(begin).Round(time.Millisecond))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	r := batch.NewRunner(cfg, nil, logger())
	results, err := r.RunSweep(ctx, &batch.ParameterSweep{
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
		Start:     vecOr(cmd, "from", from, cfg.Course.Start),
		Shot:      dynamo.Vec2(shot),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRESTS AT\tSTEPS\tSTOPPED\n", strings.ToUpper(paramName))
	for _, res := range results {
		fmt.Fprintf(w, "%.4f\t%s\t%d\t%s\n", res.ParamValue, vec(res.Landing), res.Steps, res.Reason)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	r := batch.NewRunner(cfg, nil, logger())
	results, err := r.RunMonteCarlo(ctx, &batch.MonteCarloConfig{
		Start:        vecOr(cmd, "from", from, cfg.Course.Start),
		Shot:         dynamo.Vec2(shot),
		Perturbation: perturb,
		NumTrials:    numTrials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	holed, missed := batch.MonteCarloStats(results)
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %s ± %g", cfg.Name, vec(dynamo.Vec2(shot)), perturb)))
	field("trials", "%d", len(results))
	field("holed", "%d", holed)
	field("missed", "%d", missed)
	if len(results) > 0 {
		field("hole rate", "%.1f%%", 100*float64(holed)/float64(len(results)))
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
	fmt.Fprintln(w, "ID\tKIND\tCOURSE\tTIME\tSHOTS\tRESTS AT\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Course,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Shots),
			vec(run.Final.Position()),
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if tr.Len() < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("course: %s\n", meta.Course)
	fmt.Printf("samples: %d over %.2fs\n\n", tr.Len(), tr.Times[tr.Len()-1])

	series := []struct {
		caption string
		data    []float64
	}{
		{"x position", tr.Column(dynamo.IX)},
		{"z position", tr.Column(dynamo.IZ)},
		{"speed", tr.Speeds()},
	}
	for _, s := range series {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if svgPath != "" {
		crs, err := courseForRun(meta)
		if err != nil {
			return err
		}
		opts := export.DefaultSVGOptions()
		opts.Theme = viz.GetTheme(theme)
		if err := export.WriteCourseSVG(svgPath, crs, tr.Positions(), opts); err != nil {
			return err
		}
		fmt.Printf("drew %s to %s\n", runID, svgPath)
		if exportPath == "" {
			return nil
		}
	}

	if exportPath == "" {
		return storage.WriteJSON(os.Stdout, *meta, tr)
	}
	if err := storage.ExportJSON(exportPath, *meta, tr); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, exportPath)
	return nil
}

// courseForRun rebuilds the course a run was played on. Sand and walls come
// from the preset of the same name when there is one.
func courseForRun(meta *storage.RunMetadata) (*course.Course, error) {
	cfg := config.GetPreset(meta.Course)
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Name = meta.Course
	}
	cfg.Course.Formula = meta.Formula
	cfg.Course.Start = meta.Start
	cfg.Course.Target.Pos = meta.Target
	return cfg.BuildCourse()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTART\tTARGET\tFORMULA")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, vec(p.Course.Start), vec(p.Course.Target.Pos), strings.TrimSpace(p.Course.Formula))
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()

	listen := svc.Config().Server.Addr
	if addr != "" {
		listen = addr
	}

	srvLog := log.New(os.Stderr, "", log.LstdFlags)
	srv := &http.Server{Addr: listen, Handler: api.NewRouter(svc, srvLog)}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdown, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdown)
	}()

	srvLog.Printf("[API] serving %s (%s) on %s", svc.Config().Name, svc.Fingerprint(), listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
