package metrics

import (
	"math"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
)

// PathLength sums the distance travelled between observed positions.
type PathLength struct {
	last   dynamo.Vec2
	seen   bool
	length float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) Observe(x dynamo.State, t float64) {
	pos := x.Position()
	if p.seen {
		p.length += pos.Dist(p.last)
	}
	p.last, p.seen = pos, true
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() {
	p.last, p.seen, p.length = dynamo.Vec2{}, false, 0
}

type PeakSpeed struct {
	peak float64
}

func NewPeakSpeed() *PeakSpeed { return &PeakSpeed{} }

func (p *PeakSpeed) Name() string { return "peak_speed" }

func (p *PeakSpeed) Observe(x dynamo.State, t float64) {
	p.peak = math.Max(p.peak, x.Speed())
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// SandShare is the fraction of observed steps spent on sand.
type SandShare struct {
	sand    course.SandFunc
	onSand  int
	samples int
}

func NewSandShare(sand course.SandFunc) *SandShare {
	return &SandShare{sand: sand}
}

func (s *SandShare) Name() string { return "sand_share" }

func (s *SandShare) Observe(x dynamo.State, t float64) {
	s.samples++
	if s.sand != nil && s.sand(x[dynamo.IX], x[dynamo.IZ]) {
		s.onSand++
	}
}

func (s *SandShare) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.onSand) / float64(s.samples)
}

func (s *SandShare) Reset() {
	s.onSand = 0
	s.samples = 0
}
