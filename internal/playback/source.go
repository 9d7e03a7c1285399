package playback

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/optim"
)

// ShotSource hands the driver its next shot whenever the ball is at rest.
type ShotSource interface {
	// Next returns the shot to play from pos, or ok == false once drained.
	Next(ctx context.Context, pos dynamo.Vec2) (shot dynamo.Vec2, ok bool, err error)
	Remaining() int
}

// Queue plays a fixed list of shots in order, such as a planner result.
type Queue struct {
	shots []dynamo.Vec2
}

func NewQueue(shots ...dynamo.Vec2) *Queue {
	return &Queue{shots: append([]dynamo.Vec2(nil), shots...)}
}

func (q *Queue) Next(_ context.Context, _ dynamo.Vec2) (dynamo.Vec2, bool, error) {
	if len(q.shots) == 0 {
		return dynamo.Vec2{}, false, nil
	}
	s := q.shots[0]
	q.shots = q.shots[1:]
	return s, true, nil
}

func (q *Queue) Remaining() int { return len(q.shots) }

// Aimer finds a shot from a resting ball to a point. *optim.Optimizer
// implements it.
type Aimer interface {
	Reset()
	FindBestShot(ctx context.Context, ball dynamo.State, target dynamo.Vec2) (optim.Result, error)
}

// Waypoints aims at each point in turn, resetting the aimer before every
// search. An exhausted search still plays its best shot.
type Waypoints struct {
	aim    Aimer
	points []dynamo.Vec2
	log    *log.Logger
}

func NewWaypoints(aim Aimer, logger *log.Logger, points ...dynamo.Vec2) *Waypoints {
	return &Waypoints{aim: aim, points: append([]dynamo.Vec2(nil), points...), log: orDiscard(logger)}
}

func (w *Waypoints) Next(ctx context.Context, pos dynamo.Vec2) (dynamo.Vec2, bool, error) {
	if len(w.points) == 0 {
		return dynamo.Vec2{}, false, nil
	}
	next := w.points[0]
	w.points = w.points[1:]

	w.aim.Reset()
	res, err := w.aim.FindBestShot(ctx, dynamo.NewState(pos, dynamo.Vec2{}), next)
	switch {
	case errors.Is(err, dynamo.ErrSearchExhausted):
		w.log.Printf("[PLAYBACK] aiming at %v: best shot %v misses by %.3f", next, res.Shot, res.Deviation)
	case err != nil:
		return dynamo.Vec2{}, false, fmt.Errorf("playback: aim at %v: %w", next, err)
	}
	return res.Shot, true, nil
}

func (w *Waypoints) Remaining() int { return len(w.points) }
