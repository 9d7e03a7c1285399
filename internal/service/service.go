// Package service puts a configured course behind one value: it builds the
// engine, runs the optimizer and planner on request and caches their
// results.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/puttsim/internal/cache"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
	"github.com/san-kum/puttsim/internal/metrics"
	"github.com/san-kum/puttsim/internal/optim"
	"github.com/san-kum/puttsim/internal/physics"
	"github.com/san-kum/puttsim/internal/planner"
	"github.com/san-kum/puttsim/internal/playback"
	"github.com/san-kum/puttsim/internal/storage"
)

// MaxPlaybackFrames bounds a single Play call.
const MaxPlaybackFrames = 200000

// Service is safe for concurrent use: every search gets its own optimizer
// or planner instance.
type Service struct {
	cfg         *config.Config
	eng         *physics.Engine
	cache       cache.Cache
	log         *log.Logger
	fingerprint string
}

// New builds the engine for cfg. A nil cache disables caching.
func New(cfg *config.Config, c cache.Cache, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	eng, err := cfg.BuildEngine()
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, eng: eng, cache: c, log: logger, fingerprint: fp}, nil
}

// fingerprint identifies everything that changes a search result.
func fingerprint(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(struct {
		Course    config.CourseConfig `yaml:"course"`
		Physics   physics.Params      `yaml:"physics"`
		Optimizer optim.Options       `yaml:"optimizer"`
		Planner   planner.Options     `yaml:"planner"`
	}{cfg.Course, cfg.Physics, cfg.OptimizerOptions(), cfg.PlannerOptions()})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

func (s *Service) Config() *config.Config  { return s.cfg }
func (s *Service) Engine() *physics.Engine { return s.eng }
func (s *Service) Course() *course.Course  { return s.eng.Course() }
func (s *Service) Fingerprint() string     { return s.fingerprint }

// WithFormula returns a service for the same configuration over another
// height formula, sharing the cache. An empty formula returns s.
func (s *Service) WithFormula(formula string) (*Service, error) {
	if formula == "" || formula == s.cfg.Course.Formula {
		return s, nil
	}
	cfg := *s.cfg
	cfg.Course.Formula = formula
	return New(&cfg, s.cache, s.log)
}

type EvalResult struct {
	Height   float64     `json:"height"`
	Gradient dynamo.Vec2 `json:"gradient"`
}

// Eval compiles formula and returns its value and slope at (x, z).
func Eval(formula string, x, z, t float64, aux []float64) (EvalResult, error) {
	f, err := expr.NewField(formula)
	if err != nil {
		return EvalResult{}, err
	}
	h, err := f.HeightAt(x, z, t, aux)
	if err != nil {
		return EvalResult{}, err
	}
	gx, gz, err := f.Gradient(x, z, t, aux)
	if err != nil {
		return EvalResult{}, err
	}
	return EvalResult{Height: h, Gradient: dynamo.Vec2{X: gx, Z: gz}}, nil
}

type SimulateResult struct {
	Rollout    physics.Rollout     `json:"rollout"`
	Metrics    map[string]float64  `json:"metrics"`
	Trajectory *storage.Trajectory `json:"-"`
}

// Simulate rolls one shot to rest and measures it. With record set the
// full trajectory is kept.
func (s *Service) Simulate(from, shot dynamo.Vec2, record bool) (SimulateResult, error) {
	start := dynamo.NewState(from, shot)
	crs := s.Course()
	set := metrics.Standard(s.cfg.Physics.Gravity, s.eng, func(x, z float64) bool {
		return crs.IsSand(dynamo.Vec2{X: x, Z: z})
	})
	set.OnStep(start, 0)
	observers := []dynamo.Observer{set}

	var tr *storage.Trajectory
	if record {
		tr = storage.NewTrajectory(start)
		observers = append(observers, tr)
	}

	r, err := s.eng.RunToRest(start, observers...)
	res := SimulateResult{Rollout: r, Metrics: set.Values(), Trajectory: tr}
	if err != nil {
		return res, err
	}
	s.log.Printf("[SIM] %v from %v rests at %v after %d steps (%s)", shot, from, r.Landing(), r.Steps, r.Reason)
	return res, nil
}

// Shot finds the launch velocity from a resting ball at from to target.
// Converged results are cached.
func (s *Service) Shot(ctx context.Context, from, target dynamo.Vec2) (optim.Result, error) {
	key := cache.Key("shot", s.fingerprint, from, target)

	var res optim.Result
	if s.lookup(ctx, key, &res) {
		s.log.Printf("[SHOT] cache hit %s", key)
		return res, nil
	}

	o := optim.New(s.eng, s.cfg.OptimizerOptions(), s.log)
	res, err := o.FindBestShot(ctx, dynamo.NewState(from, dynamo.Vec2{}), target)
	if err != nil {
		return res, err
	}
	s.store(ctx, key, res)
	return res, nil
}

// Plan finds a shot sequence from from into target. Found plans are cached.
func (s *Service) Plan(ctx context.Context, from dynamo.Vec2, target course.Target) (planner.Plan, error) {
	key := cache.Key("plan", s.fingerprint, from, target.Pos, target.Radius)

	var plan planner.Plan
	if s.lookup(ctx, key, &plan) {
		s.log.Printf("[PLAN] cache hit %s", key)
		return plan, nil
	}

	p := planner.New(s.eng, s.Course(), s.cfg.PlannerOptions(), s.log)
	plan, err := p.Search(ctx, from, target)
	if err != nil {
		return plan, err
	}
	s.store(ctx, key, plan)
	return plan, nil
}

// Play drives a ball from from through shots frame by frame.
func (s *Service) Play(ctx context.Context, from dynamo.Vec2, shots []dynamo.Vec2, observers ...dynamo.Observer) (playback.Summary, error) {
	return s.Driver(from, shots, observers...).Run(ctx, MaxPlaybackFrames)
}

// PlayWaypoints plays the ball through waypoints, aiming each shot with a
// fresh optimizer search from wherever the ball came to rest.
func (s *Service) PlayWaypoints(ctx context.Context, from dynamo.Vec2, waypoints []dynamo.Vec2, observers ...dynamo.Observer) (playback.Summary, error) {
	return s.WaypointDriver(from, waypoints, observers...).Run(ctx, MaxPlaybackFrames)
}

// Driver returns a frame-by-frame driver over a fixed list of shots.
func (s *Service) Driver(from dynamo.Vec2, shots []dynamo.Vec2, observers ...dynamo.Observer) *playback.Driver {
	return playback.NewDriver(s.eng, playback.NewQueue(shots...), from, s.log, observers...)
}

func (s *Service) WaypointDriver(from dynamo.Vec2, waypoints []dynamo.Vec2, observers ...dynamo.Observer) *playback.Driver {
	o := optim.New(s.eng, s.cfg.OptimizerOptions(), s.log)
	src := playback.NewWaypoints(o, s.log, waypoints...)
	return playback.NewDriver(s.eng, src, from, s.log, observers...)
}

func (s *Service) lookup(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	err := cache.GetJSON(ctx, s.cache, key, v)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		s.log.Printf("[CACHE] get %s: %v", key, err)
	}
	return err == nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, v, s.cfg.Cache.TTL); err != nil {
		s.log.Printf("[CACHE] set %s: %v", key, err)
	}
}

func (s *Service) String() string {
	return fmt.Sprintf("%s (%s)", s.cfg.Name, s.fingerprint)
}
