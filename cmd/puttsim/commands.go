package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/puttsim/internal/cache"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/playback"
	"github.com/san-kum/puttsim/internal/service"
	"github.com/san-kum/puttsim/internal/storage"
	"github.com/san-kum/puttsim/internal/viz"
)

func runEval(cmd *cobra.Command, args []string) error {
	res, err := service.Eval(args[0], evalX, evalZ, evalT, evalAux)
	if err != nil {
		return err
	}
	field("height", "%.6f", res.Height)
	field("gradient", "%s", vec(res.Gradient))
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()

	crs := svc.Course()
	start := vecOr(cmd, "from", from, crs.Start)
	launch := dynamo.Vec2(shot)

	begin := time.Now()
	res, err := svc.Simulate(start, launch, true)
	if err != nil && !errors.Is(err, dynamo.ErrDivergentSimulation) {
		return err
	}
	if err != nil {
		fmt.Println(warnStyle.Render("diverged: " + err.Error()))
	}
	r := res.Rollout
	cfg := svc.Config()

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %s from %s", cfg.Name, vec(launch), vec(start))))
	field("completed in", "%v", time.Since(begin))
	field("steps", "%d (%.3fs)", r.Steps, r.Time)
	field("rests at", "%s", vec(r.Landing()))
	field("stopped", "%s", r.Reason)
	if crs.TargetReached(r.Landing()) {
		fmt.Println(okStyle.Render("in the hole"))
	} else {
		field("to hole", "%.4f", r.Landing().Dist(crs.Target.Pos))
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}
	fmt.Println()
	return saveRun(svc, "run", "euler", start, crs.Target.Pos, []dynamo.Vec2{launch}, r.Final, r.Reason.String(), res.Metrics, res.Trajectory)
}

func runShot(cmd *cobra.Command, args []string) error {
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := signalContext()
	defer cancel()

	crs := svc.Course()
	start := vecOr(cmd, "from", from, crs.Start)
	target := vecOr(cmd, "to", to, crs.Target.Pos)

	res, err := svc.Shot(ctx, start, target)
	if err != nil && !errors.Is(err, dynamo.ErrSearchExhausted) {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %s → %s", svc.Config().Name, vec(start), vec(target))))
	field("shot", "%s", vec(res.Shot))
	field("lands at", "%s", vec(res.Landing))
	field("deviation", "%.5f", res.Deviation)
	field("iterations", "%d", res.Iterations)
	if res.Converged {
		fmt.Println(okStyle.Render("converged"))
	} else {
		fmt.Println(warnStyle.Render("best effort: iteration cap reached"))
	}

	if plotConv && len(res.History) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(res.History,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("landing error per iteration"),
		))
	}

	if save {
		sim, err := svc.Simulate(start, res.Shot, true)
		if err != nil {
			return err
		}
		return saveRun(svc, "shot", "euler", start, target, []dynamo.Vec2{res.Shot}, sim.Rollout.Final, sim.Rollout.Reason.String(), sim.Metrics, sim.Trajectory)
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := signalContext()
	defer cancel()

	crs := svc.Course()
	start := vecOr(cmd, "from", from, crs.Start)
	target := course.Target{Pos: vecOr(cmd, "to", to, crs.Target.Pos), Radius: crs.Target.Radius}
	if radius > 0 {
		target.Radius = radius
	}

	begin := time.Now()
	plan, err := svc.Plan(ctx, start, target)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %d shots, cost %.3f", svc.Config().Name, len(plan.Shots), plan.Cost)))
	field("searched", "%d nodes, %d roll-outs in %v", plan.Iterations, plan.Rollouts, time.Since(begin).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSHOT\tRESTS AT")
	for i, s := range plan.Shots {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, vec(s), vec(plan.Waypoints[i]))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !playPlan {
		return nil
	}
	sum, err := svc.Play(ctx, start, plan.Shots)
	if err != nil && !errors.Is(err, playback.ErrFrameLimit) {
		return err
	}
	fmt.Println()
	printSummary(sum)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	svc, c, err := newService()
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := signalContext()
	defer cancel()

	crs := svc.Course()
	start := vecOr(cmd, "from", from, crs.Start)

	shots, err := parseVecs(shotList)
	if err != nil {
		return fmt.Errorf("--shots: %w", err)
	}
	points, err := parseVecs(waypoints)
	if err != nil {
		return fmt.Errorf("--waypoints: %w", err)
	}
	if aim {
		points = append(points, crs.Target.Pos)
	}
	if len(shots) > 0 && len(points) > 0 {
		return fmt.Errorf("give either --shots or --waypoints/--aim, not both")
	}
	if len(shots) == 0 && len(points) == 0 {
		return fmt.Errorf("nothing to play: give --shots, --waypoints or --aim")
	}

	newDriver := func(observers ...dynamo.Observer) *playback.Driver {
		if len(shots) > 0 {
			return svc.Driver(start, shots, observers...)
		}
		return svc.WaypointDriver(start, points, observers...)
	}

	if live {
		m := viz.NewModel(ctx, crs, func() *playback.Driver { return newDriver() }, viz.Options{
			Title:        svc.Config().Name,
			Theme:        theme,
			StepsPerTick: speed,
			FrameRate:    frameRate,
			Waypoints:    points,
		})
		return viz.Run(m)
	}

	tr := storage.NewTrajectory(dynamo.NewState(start, dynamo.Vec2{}))
	sum, err := newDriver(tr).Run(ctx, service.MaxPlaybackFrames)
	if err != nil && !errors.Is(err, playback.ErrFrameLimit) {
		return err
	}
	printSummary(sum)

	if save {
		played := shots
		if len(played) == 0 {
			played = points
		}
		return saveRun(svc, "play", "rk4", start, crs.Target.Pos, played, sum.Final, "", nil, tr)
	}
	return nil
}

func printSummary(sum playback.Summary) {
	field("frames", "%d (%.2fs)", sum.Frames, sum.Time)
	field("shots", "%d", sum.Shots)
	field("penalties", "%d", sum.Penalties)
	field("rests at", "%s", vec(sum.Final.Position()))
	if sum.Holed {
		fmt.Println(okStyle.Render("in the hole"))
	} else {
		fmt.Println(warnStyle.Render("not holed"))
	}
}

func saveRun(svc *service.Service, kind, integ string, start, target dynamo.Vec2, shots []dynamo.Vec2, final dynamo.State, reason string, m map[string]float64, tr *storage.Trajectory) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	cfg := svc.Config()
	runID, err := st.Save(storage.RunMetadata{
		Kind:       kind,
		Course:     cfg.Name,
		Formula:    cfg.Course.Formula,
		Step:       cfg.Physics.Step,
		Integrator: integ,
		Start:      start,
		Target:     target,
		Shots:      shots,
		Final:      final,
		Reason:     reason,
		Metrics:    m,
	}, tr)
	if err != nil {
		return err
	}
	field("run id", "%s", runID)
	return nil
}

// runMenu opens the course picker when puttsim is started without a
// command.
func runMenu(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	shared := cache.NewMemory()

	items := make([]viz.MenuItem, 0, len(config.Presets))
	for _, name := range config.ListPresets() {
		items = append(items, viz.MenuItem{Name: name, Description: config.Presets[name].Course.Formula})
	}

	launch := func(item viz.MenuItem, mode viz.Mode) (viz.Model, error) {
		cfg := config.GetPreset(item.Name)
		cfg.ApplyEnv()
		svc, err := service.New(cfg, shared, logger())
		if err != nil {
			return viz.Model{}, err
		}
		crs := svc.Course()
		points := []dynamo.Vec2{crs.Target.Pos}
		if mode == viz.ModePlan {
			planCtx, stop := context.WithTimeout(ctx, 30*time.Second)
			defer stop()
			plan, err := svc.Plan(planCtx, crs.Start, crs.Target)
			if err != nil {
				return viz.Model{}, err
			}
			points = plan.Waypoints
		}
		drivers := func() *playback.Driver { return svc.WaypointDriver(crs.Start, points) }
		return viz.NewModel(ctx, crs, drivers, viz.Options{Title: item.Name + " · " + string(mode), Waypoints: points}), nil
	}

	return viz.Run(viz.NewMenu(items, launch))
}
