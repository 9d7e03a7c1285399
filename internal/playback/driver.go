// Package playback drives a single ball frame by frame through a sequence
// of shots, the way a player would see it on screen.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/physics"
)

// RestSpeed is the speed below which the ball counts as stopped and the
// next shot may be played.
const RestSpeed = 0.04

var ErrFrameLimit = errors.New("playback: frame limit reached")

type Event int

const (
	EventIdle Event = iota
	EventRoll
	EventShot
	EventPenalty
	EventDiverged
)

func (e Event) String() string {
	switch e {
	case EventRoll:
		return "roll"
	case EventShot:
		return "shot"
	case EventPenalty:
		return "penalty"
	case EventDiverged:
		return "diverged"
	default:
		return "idle"
	}
}

func (e Event) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Frame is what one Tick did.
type Frame struct {
	Index int          `json:"index"`
	Time  float64      `json:"time"`
	State dynamo.State `json:"state"`
	Event Event        `json:"event"`
}

// Summary is the outcome of Run.
type Summary struct {
	Frames    int          `json:"frames"`
	Shots     int          `json:"shots"`
	Penalties int          `json:"penalties"`
	Time      float64      `json:"time"`
	Final     dynamo.State `json:"final"`
	Holed     bool         `json:"holed"`
}

// Driver owns one ball and a frame clock. It is not safe for concurrent use.
type Driver struct {
	eng   *physics.Engine
	src   ShotSource
	rules course.Rules
	obs   []dynamo.Observer
	log   *log.Logger

	state  dynamo.State
	origin dynamo.Vec2
	t      float64
	frame  int
	shots  int
	fouls  int
}

// NewDriver places a resting ball at start. The engine's course supplies
// the rules: a ball that leaves the bounds or lands in a hazard is replaced
// where its shot was struck.
func NewDriver(eng *physics.Engine, src ShotSource, start dynamo.Vec2, logger *log.Logger, observers ...dynamo.Observer) *Driver {
	return &Driver{
		eng:    eng,
		src:    src,
		rules:  eng.Course(),
		obs:    observers,
		log:    orDiscard(logger),
		state:  dynamo.NewState(start, dynamo.Vec2{}),
		origin: start,
	}
}

func (d *Driver) State() dynamo.State { return d.state }
func (d *Driver) Time() float64       { return d.t }
func (d *Driver) Shots() int          { return d.shots }

// AtRest reports whether the ball is slower than RestSpeed.
func (d *Driver) AtRest() bool { return d.state.Speed() < RestSpeed }

// Done reports whether the source is drained and the ball is at rest.
func (d *Driver) Done() bool { return d.AtRest() && d.src.Remaining() == 0 }

// Holed reports whether the ball rests inside the hole.
func (d *Driver) Holed() bool { return d.AtRest() && d.rules.TargetReached(d.state.Position()) }

// Tick advances the ball one RK4 frame while it moves, and otherwise plays
// the next shot from the source.
func (d *Driver) Tick(ctx context.Context) (Frame, error) {
	if d.AtRest() {
		return d.strike(ctx)
	}

	next, err := d.eng.StepRK4(d.state, d.t)
	if err != nil {
		if !errors.Is(err, dynamo.ErrDivergentSimulation) {
			return d.emit(EventIdle), fmt.Errorf("playback: frame %d: %w", d.frame, err)
		}
		d.log.Printf("[PLAYBACK] frame %d diverged at %v, stopping ball", d.frame, d.state)
		d.state = d.state.WithVelocity(dynamo.Vec2{})
		return d.emit(EventDiverged), nil
	}
	d.t += d.eng.Params().Step
	d.state = next

	if d.rules.OutOfBounds(next.Position()) {
		d.fouls++
		d.log.Printf("[PLAYBACK] ball out at %v, replaying from %v", next.Position(), d.origin)
		d.state = dynamo.NewState(d.origin, dynamo.Vec2{})
		return d.emit(EventPenalty), nil
	}
	return d.emit(EventRoll), nil
}

func (d *Driver) strike(ctx context.Context) (Frame, error) {
	pos := d.state.Position()
	shot, ok, err := d.src.Next(ctx, pos)
	if err != nil {
		return d.emit(EventIdle), err
	}
	if !ok {
		return d.emit(EventIdle), nil
	}
	d.shots++
	d.origin = pos
	d.state = dynamo.NewState(pos, shot)
	d.log.Printf("[PLAYBACK] shot %d from %v: %v", d.shots, pos, shot)
	return d.emit(EventShot), nil
}

func (d *Driver) emit(ev Event) Frame {
	f := Frame{Index: d.frame, Time: d.t, State: d.state, Event: ev}
	d.frame++
	if ev == EventRoll || ev == EventPenalty {
		for _, o := range d.obs {
			o.OnStep(d.state, d.t)
		}
	}
	return f
}

// Run ticks until Done or maxFrames frames have passed.
func (d *Driver) Run(ctx context.Context, maxFrames int) (Summary, error) {
	for n := 0; !d.Done(); n++ {
		if n >= maxFrames {
			return d.summary(), ErrFrameLimit
		}
		if err := ctx.Err(); err != nil {
			return d.summary(), err
		}
		if _, err := d.Tick(ctx); err != nil {
			return d.summary(), err
		}
	}
	s := d.summary()
	d.log.Printf("[PLAYBACK] done: %d shots, %d penalties, rest at %v", s.Shots, s.Penalties, s.Final.Position())
	return s, nil
}

func (d *Driver) summary() Summary {
	return Summary{
		Frames:    d.frame,
		Shots:     d.shots,
		Penalties: d.fouls,
		Time:      d.t,
		Final:     d.state,
		Holed:     d.Holed(),
	}
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}
