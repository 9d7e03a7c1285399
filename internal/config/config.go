package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
	"github.com/san-kum/puttsim/internal/optim"
	"github.com/san-kum/puttsim/internal/physics"
	"github.com/san-kum/puttsim/internal/planner"
)

const (
	DefaultFormula      = " sqrt ( ( sin ( 0.1 * x ) + cos ( 0.1 * y ) ) ^ 2 ) + 0.5 * sin ( 0.3 * x ) * cos ( 0.3 * y ) "
	DefaultTargetRadius = 0.15
	DefaultMaxSpeed     = 10.0
	DefaultAddr         = ":8080"
	DefaultCacheTTL     = 30 * time.Minute
)

type Config struct {
	Name      string          `yaml:"name"`
	Course    CourseConfig    `yaml:"course"`
	Physics   physics.Params  `yaml:"physics"`
	MaxSpeed  float64         `yaml:"max_speed"`
	Optimizer optim.Options   `yaml:"optimizer"`
	Planner   planner.Options `yaml:"planner"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

type CourseConfig struct {
	Formula     string        `yaml:"formula"`
	Start       dynamo.Vec2   `yaml:"start"`
	Target      course.Target `yaml:"target"`
	Bounds      course.Bounds `yaml:"bounds"`
	SandZones   []course.Zone `yaml:"sand_zones,omitempty"`
	SandFormula string        `yaml:"sand_formula,omitempty"`
	Walls       WallsConfig   `yaml:"walls,omitempty"`
}

type WallsConfig struct {
	Restitution float64          `yaml:"restitution,omitempty"`
	Box         *course.Bounds   `yaml:"box,omitempty"`
	Segments    []course.Segment `yaml:"segments,omitempty"`
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Course: CourseConfig{
			Formula: DefaultFormula,
			Start:   dynamo.Vec2{X: 5, Z: 2},
			Target:  course.Target{Pos: dynamo.Vec2{X: 4, Z: 1}, Radius: DefaultTargetRadius},
		},
		Physics:   physics.DefaultParams(),
		MaxSpeed:  DefaultMaxSpeed,
		Optimizer: optim.DefaultOptions(),
		Planner:   planner.DefaultOptions(),
		Cache:     CacheConfig{TTL: DefaultCacheTTL},
		Server:    ServerConfig{Addr: DefaultAddr},
	}
}

// Load reads a yaml file over the defaults, so a file only needs the
// fields it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads .env if present and applies PUTTSIM_* overrides.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Course.Formula = getEnv("PUTTSIM_FORMULA", c.Course.Formula)
	c.MaxSpeed = getEnvFloat("PUTTSIM_MAX_SPEED", c.MaxSpeed)
	c.Cache.RedisURL = getEnv("PUTTSIM_REDIS_URL", c.Cache.RedisURL)
	c.Cache.TTL = getEnvDuration("PUTTSIM_CACHE_TTL", c.Cache.TTL)
	c.Server.Addr = getEnv("PUTTSIM_ADDR", c.Server.Addr)
}

func (c *Config) Validate() error {
	if c.Course.Formula == "" {
		return fmt.Errorf("%w: course formula is empty", dynamo.ErrInvalidConfig)
	}
	if c.Course.Target.Radius <= 0 {
		return fmt.Errorf("%w: target radius %g <= 0", dynamo.ErrInvalidConfig, c.Course.Target.Radius)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("%w: max_speed %g <= 0", dynamo.ErrInvalidConfig, c.MaxSpeed)
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if err := c.OptimizerOptions().Validate(); err != nil {
		return err
	}
	return c.PlannerOptions().Validate()
}

// OptimizerOptions returns the optimizer settings with the shared max_speed.
func (c *Config) OptimizerOptions() optim.Options {
	o := c.Optimizer
	o.MaxSpeed = c.MaxSpeed
	return o
}

// PlannerOptions returns the planner settings with the shared max_speed.
func (c *Config) PlannerOptions() planner.Options {
	o := c.Planner
	o.MaxSpeed = c.MaxSpeed
	return o
}

// BuildCourse compiles the height and sand formulas and assembles the course.
func (c *Config) BuildCourse() (*course.Course, error) {
	cc := c.Course
	crs, err := course.New(cc.Formula, cc.Start, cc.Target)
	if err != nil {
		return nil, err
	}
	crs.Name = c.Name
	crs.Bounds = cc.Bounds

	var sand []course.SandFunc
	if len(cc.SandZones) > 0 {
		sand = append(sand, course.Zones(cc.SandZones...))
	}
	if cc.SandFormula != "" {
		f, err := expr.NewField(cc.SandFormula)
		if err != nil {
			return nil, fmt.Errorf("course: sand formula: %w", err)
		}
		sand = append(sand, course.FormulaSand(f))
	}
	switch len(sand) {
	case 0:
	case 1:
		crs.Sand = sand[0]
	default:
		crs.Sand = course.Either(sand...)
	}

	segs := append([]course.Segment(nil), cc.Walls.Segments...)
	if cc.Walls.Box != nil {
		segs = append(segs, course.Box(cc.Walls.Box.Min, cc.Walls.Box.Max)...)
	}
	if len(segs) > 0 {
		e := cc.Walls.Restitution
		if e == 0 {
			e = course.DefaultRestitution
		}
		crs.Walls = course.NewWalls(e, segs...)
	}
	return crs, nil
}

// BuildEngine validates the configuration and returns an engine over its course.
func (c *Config) BuildEngine() (*physics.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	crs, err := c.BuildCourse()
	if err != nil {
		return nil, err
	}
	return physics.NewEngine(crs, c.Physics)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
