package planner_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/physics"
	"github.com/san-kum/puttsim/internal/planner"
)

// latticeSim lands every shot at pos + 5·shot, like a flat frictionless
// course rolled for the full iteration cap.
type latticeSim struct {
	calls atomic.Int64
	err   error
}

func (s *latticeSim) Shoot(pos, shot dynamo.Vec2, _ ...dynamo.Observer) (physics.Rollout, error) {
	s.calls.Add(1)
	if s.err != nil {
		return physics.Rollout{}, s.err
	}
	return physics.Rollout{
		Start: dynamo.NewState(pos, shot),
		Final: dynamo.NewState(pos.Add(shot.Scale(5)), dynamo.Vec2{}),
	}, nil
}

type rejectRules struct {
	reject func(dynamo.Vec2) bool
}

func (r rejectRules) OutOfBounds(p dynamo.Vec2) bool   { return r.reject(p) }
func (r rejectRules) TargetReached(dynamo.Vec2) bool { return false }

func opts(maxSpeed float64) planner.Options {
	o := planner.DefaultOptions()
	o.MaxSpeed = maxSpeed
	o.FineStep, o.CoarseStep = 1, 1
	return o
}

func flatEngine() *physics.Engine {
	c, err := course.New("1", dynamo.Vec2{}, course.Target{Radius: 0.1})
	Expect(err).NotTo(HaveOccurred())
	eng, err := physics.NewEngine(c, physics.Frictionless())
	Expect(err).NotTo(HaveOccurred())
	return eng
}

var _ = Describe("Planner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("on a flat frictionless course", func() {
		It("plans a single shot when one reaches the hole", func() {
			eng := flatEngine()
			p := planner.New(eng, eng.Course(), opts(2), nil)

			target := course.Target{Pos: dynamo.Vec2{X: 5, Z: 5}, Radius: 0.1}
			shots, err := p.FindShotSequence(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(shots).To(Equal([]dynamo.Vec2{{X: 1, Z: 1}}))
		})

		It("chains shots when the hole is out of reach", func() {
			eng := flatEngine()
			p := planner.New(eng, eng.Course(), opts(1), nil)

			target := course.Target{Pos: dynamo.Vec2{X: 10, Z: 5}, Radius: 0.1}
			plan, err := p.Search(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Shots).To(Equal([]dynamo.Vec2{{X: 1, Z: 1}, {X: 1, Z: 0}}))
			Expect(plan.Waypoints).To(HaveLen(2))
			Expect(plan.Cost).To(BeNumerically("~", 1+1.4142135623730951, 1e-12))

			pos := dynamo.Vec2{}
			for _, shot := range plan.Shots {
				r, err := eng.Shoot(pos, shot)
				Expect(err).NotTo(HaveOccurred())
				pos = r.Landing()
			}
			Expect(target.Reached(pos)).To(BeTrue())
		})
	})

	It("routes around rejected landings", func() {
		rules := rejectRules{reject: func(p dynamo.Vec2) bool {
			return p.Dist(dynamo.Vec2{X: 5, Z: 5}) < 1e-6
		}}
		p := planner.New(&latticeSim{}, rules, opts(1), nil)

		target := course.Target{Pos: dynamo.Vec2{X: 10, Z: 5}, Radius: 0.1}
		shots, err := p.FindShotSequence(ctx, dynamo.Vec2{}, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(shots).To(Equal([]dynamo.Vec2{{X: 1, Z: 0}, {X: 1, Z: 1}}))
	})

	It("returns an empty plan when the start is already in the hole", func() {
		sim := &latticeSim{}
		p := planner.New(sim, nil, opts(1), nil)

		target := course.Target{Pos: dynamo.Vec2{X: 0.05}, Radius: 0.1}
		shots, err := p.FindShotSequence(ctx, dynamo.Vec2{}, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(shots).To(BeEmpty())
		Expect(sim.calls.Load()).To(BeZero())
	})

	Context("when no plan exists", func() {
		target := course.Target{Pos: dynamo.Vec2{X: 2.5}, Radius: 0.1}

		It("gives up once the open set is empty", func() {
			rules := rejectRules{reject: func(p dynamo.Vec2) bool {
				return p.X < -10 || p.X > 10 || p.Z < -10 || p.Z > 10
			}}
			p := planner.New(&latticeSim{}, rules, opts(1), nil)

			plan, err := p.Search(ctx, dynamo.Vec2{}, target)
			Expect(errors.Is(err, dynamo.ErrSearchExhausted)).To(BeTrue())
			Expect(plan.Shots).To(BeEmpty())
			Expect(plan.Iterations).To(Equal(25))
		})

		It("gives up at the iteration cap", func() {
			o := opts(1)
			o.MaxIterations = 3
			sim := &latticeSim{}
			p := planner.New(sim, nil, o, nil)

			plan, err := p.Search(ctx, dynamo.Vec2{}, target)
			Expect(errors.Is(err, dynamo.ErrSearchExhausted)).To(BeTrue())
			Expect(plan.Shots).To(BeEmpty())
			Expect(plan.Iterations).To(Equal(3))
			Expect(sim.calls.Load()).To(Equal(int64(3 * 8)))
		})
	})

	It("propagates simulation errors", func() {
		boom := errors.New("boom")
		p := planner.New(&latticeSim{err: boom}, nil, opts(1), nil)

		_, err := p.FindShotSequence(ctx, dynamo.Vec2{}, course.Target{Pos: dynamo.Vec2{X: 5}, Radius: 0.1})
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		p := planner.New(&latticeSim{}, nil, opts(1), nil)

		_, err := p.FindShotSequence(cctx, dynamo.Vec2{}, course.Target{Pos: dynamo.Vec2{X: 5}, Radius: 0.1})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("rejects invalid options", func() {
		o := opts(1)
		o.FineStep = 0
		p := planner.New(&latticeSim{}, nil, o, nil)

		_, err := p.FindShotSequence(ctx, dynamo.Vec2{}, course.Target{Radius: 0.1})
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})

	DescribeTable("grid step",
		func(dist, want float64) {
			p := planner.New(&latticeSim{}, nil, planner.DefaultOptions(), nil)
			Expect(p.GridStep(dist)).To(BeNumerically("~", want, 1e-12))
		},
		Entry("at the hole", 0.0, planner.DefaultFineStep),
		Entry("half way", 10.0, 1.75),
		Entry("at the coarse distance", 20.0, planner.DefaultCoarseStep),
		Entry("far away", 80.0, planner.DefaultCoarseStep),
	)
})
