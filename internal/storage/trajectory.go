package storage

import "github.com/san-kum/puttsim/internal/dynamo"

// Trajectory records every state it observes. It implements [dynamo.Observer].
type Trajectory struct {
	Times  []float64
	States []dynamo.State
}

func NewTrajectory(start dynamo.State) *Trajectory {
	return &Trajectory{Times: []float64{0}, States: []dynamo.State{start}}
}

func (tr *Trajectory) OnStep(x dynamo.State, t float64) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x)
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Positions returns the ground track.
func (tr *Trajectory) Positions() []dynamo.Vec2 {
	out := make([]dynamo.Vec2, len(tr.States))
	for i, x := range tr.States {
		out[i] = x.Position()
	}
	return out
}

// Column returns component i of every state, e.g. dynamo.IX.
func (tr *Trajectory) Column(i int) []float64 {
	out := make([]float64, len(tr.States))
	for j, x := range tr.States {
		out[j] = x[i]
	}
	return out
}

// Speeds returns |v| at every recorded state.
func (tr *Trajectory) Speeds() []float64 {
	out := make([]float64, len(tr.States))
	for i, x := range tr.States {
		out[i] = x.Speed()
	}
	return out
}
