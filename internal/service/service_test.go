package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/puttsim/internal/cache"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
	"github.com/san-kum/puttsim/internal/physics"
	"github.com/san-kum/puttsim/internal/service"
)

func flatConfig(maxSpeed float64) *config.Config {
	cfg := config.GetPreset("flat")
	cfg.Physics = physics.Frictionless()
	cfg.MaxSpeed = maxSpeed
	cfg.Planner.FineStep, cfg.Planner.CoarseStep = 1, 1
	return cfg
}

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		mem *cache.Memory
		svc *service.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = cache.NewMemory()
		var err error
		svc, err = service.New(flatConfig(10), mem, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Eval", func() {
		It("returns height and slope", func() {
			res, err := service.Eval("x ^ 2 + 3 * z", 2, 1, 0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Height).To(Equal(7.0))
			Expect(res.Gradient.X).To(BeNumerically("~", 4, 1e-5))
			Expect(res.Gradient.Z).To(BeNumerically("~", 3, 1e-5))
		})

		It("reports malformed formulas", func() {
			_, err := service.Eval("( 1 + 2", 0, 0, 0, nil)
			Expect(errors.Is(err, expr.ErrMalformedExpression)).To(BeTrue())
		})
	})

	Describe("Simulate", func() {
		It("rolls a shot to rest and measures the path", func() {
			res, err := svc.Simulate(dynamo.Vec2{}, dynamo.Vec2{X: 1, Z: 1}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rollout.Steps).To(Equal(physics.MaxIterations))
			Expect(res.Rollout.Landing().Dist(dynamo.Vec2{X: 5, Z: 5})).To(BeNumerically("<", 1e-9))
			Expect(res.Metrics["path_length"]).To(BeNumerically("~", 5*1.4142135623730951, 1e-6))
			Expect(res.Trajectory.Len()).To(Equal(physics.MaxIterations + 1))
		})
	})

	Describe("Shot", func() {
		It("finds a converging shot and caches it", func() {
			target := dynamo.Vec2{X: 5, Z: 5}
			res, err := svc.Shot(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(mem.Len()).To(Equal(1))

			again, err := svc.Shot(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Shot).To(Equal(res.Shot))
			Expect(mem.Hits()["shot"]).To(Equal(1))
		})
	})

	Describe("Plan", func() {
		It("plans and caches a shot sequence", func() {
			svc, err := service.New(flatConfig(2), mem, nil)
			Expect(err).NotTo(HaveOccurred())

			target := course.Target{Pos: dynamo.Vec2{X: 5, Z: 5}, Radius: 0.1}
			plan, err := svc.Plan(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Shots).To(Equal([]dynamo.Vec2{{X: 1, Z: 1}}))

			again, err := svc.Plan(ctx, dynamo.Vec2{}, target)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Shots).To(Equal(plan.Shots))
			Expect(mem.Hits()["plan"]).To(Equal(1))
		})

		It("keys the cache on the course", func() {
			other, err := svc.WithFormula("2")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Fingerprint()).NotTo(Equal(svc.Fingerprint()))

			same, err := svc.WithFormula("")
			Expect(err).NotTo(HaveOccurred())
			Expect(same).To(BeIdenticalTo(svc))
		})

		It("rejects a broken formula override", func() {
			_, err := svc.WithFormula("1 +")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Play", func() {
		It("drives the planned shots on grass", func() {
			cfg := config.GetPreset("flat")
			grass, err := service.New(cfg, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			sum, err := grass.Play(ctx, dynamo.Vec2{}, []dynamo.Vec2{{X: 2}, {Z: 2}})
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Shots).To(Equal(2))
			Expect(sum.Final.Position().X).To(BeNumerically(">", 0))
			Expect(sum.Final.Position().Z).To(BeNumerically(">", 0))
		})
	})

	It("refuses an invalid configuration", func() {
		cfg := flatConfig(0)
		_, err := service.New(cfg, nil, nil)
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})
})
