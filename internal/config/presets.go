package config

import (
	"sort"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
)

func preset(name string, cc CourseConfig) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	if cc.Target.Radius == 0 {
		cc.Target.Radius = DefaultTargetRadius
	}
	cfg.Course = cc
	return cfg
}

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"flat": preset("flat", CourseConfig{
		Formula: "1",
		Target:  course.Target{Pos: dynamo.Vec2{X: 5, Z: 5}},
	}),
	"slope": preset("slope", CourseConfig{
		Formula: "1 + 0.1 * x - 0.05 * y",
		Start:   dynamo.Vec2{X: -4, Z: 0},
		Target:  course.Target{Pos: dynamo.Vec2{X: 3, Z: 2}},
	}),
	"bowl": preset("bowl", CourseConfig{
		Formula: "0.02 * ( x ^ 2 + y ^ 2 ) + 0.5",
		Start:   dynamo.Vec2{X: -5, Z: -5},
		Target:  course.Target{Pos: dynamo.Vec2{X: 1, Z: 2}},
	}),
	"sand-trap": preset("sand-trap", CourseConfig{
		Formula:   "1 + 0.02 * x",
		Target:    course.Target{Pos: dynamo.Vec2{X: 6, Z: 6}},
		SandZones: []course.Zone{{Center: dynamo.Vec2{X: 3, Z: 3}, Radius: 1.5}},
	}),
	"pond": preset("pond", CourseConfig{
		Formula: "0.05 * ( ( x - 5 ) ^ 2 + y ^ 2 ) - 0.2",
		Target:  course.Target{Pos: dynamo.Vec2{X: 10, Z: 0}},
		Bounds:  course.Bounds{Min: dynamo.Vec2{X: -3, Z: -8}, Max: dynamo.Vec2{X: 13, Z: 8}},
	}),
	"maze": preset("maze", CourseConfig{
		Formula: "1",
		Start:   dynamo.Vec2{X: 2, Z: 2},
		Target:  course.Target{Pos: dynamo.Vec2{X: 8, Z: 2}},
		Bounds:  course.Bounds{Min: dynamo.Vec2{X: -1, Z: -1}, Max: dynamo.Vec2{X: 11, Z: 11}},
		Walls: WallsConfig{
			Box:      &course.Bounds{Min: dynamo.Vec2{X: -1, Z: -1}, Max: dynamo.Vec2{X: 11, Z: 11}},
			Segments: []course.Segment{{A: dynamo.Vec2{X: 5, Z: -1}, B: dynamo.Vec2{X: 5, Z: 7}}},
		},
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Course.SandZones = append([]course.Zone(nil), p.Course.SandZones...)
	cfg.Course.Walls.Segments = append([]course.Segment(nil), p.Course.Walls.Segments...)
	if p.Course.Walls.Box != nil {
		box := *p.Course.Walls.Box
		cfg.Course.Walls.Box = &box
	}
	return &cfg
}

// ListPresets returns the preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
