package optim_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/optim"
	"github.com/san-kum/puttsim/internal/physics"
)

// linearSim lands every shot at pos + gain·shot.
type linearSim struct {
	gain  float64
	calls atomic.Int64
	err   error
}

func (s *linearSim) Shoot(pos, shot dynamo.Vec2, _ ...dynamo.Observer) (physics.Rollout, error) {
	s.calls.Add(1)
	if s.err != nil {
		return physics.Rollout{}, s.err
	}
	end := pos.Add(shot.Scale(s.gain))
	return physics.Rollout{
		Start: dynamo.NewState(pos, shot),
		Final: dynamo.NewState(end, dynamo.Vec2{}),
	}, nil
}

func flatEngine(p physics.Params) *physics.Engine {
	c, err := course.New("1", dynamo.Vec2{}, course.Target{Radius: 0.1})
	Expect(err).NotTo(HaveOccurred())
	eng, err := physics.NewEngine(c, p)
	Expect(err).NotTo(HaveOccurred())
	return eng
}

var _ = Describe("Optimizer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("on a flat frictionless field", func() {
		It("finds a shot landing within tolerance of the target", func() {
			eng := flatEngine(physics.Frictionless())
			o := optim.New(eng, optim.DefaultOptions(), nil)

			res, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 5, Z: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(BeNumerically("<=", optim.MaxIterations))

			r, err := eng.Shoot(dynamo.Vec2{}, res.Shot)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Landing().Dist(dynamo.Vec2{X: 5, Z: 5})).To(BeNumerically("<", optim.Tolerance))
		})
	})

	Context("with kinetic friction", func() {
		It("finds a shot from a custom initial guess", func() {
			p := physics.DefaultParams()
			p.Grass = physics.Friction{Kinetic: 0.5, Static: 0.5}
			eng := flatEngine(p)

			opts := optim.DefaultOptions()
			opts.InitialGuess = dynamo.Vec2{X: 1, Z: 1}
			o := optim.New(eng, opts, nil)

			target := dynamo.Vec2{X: 1, Z: 0.5}
			res, err := o.FindBestShot(ctx, dynamo.State{}, target)
			Expect(err).NotTo(HaveOccurred())

			r, err := eng.Shoot(dynamo.Vec2{}, res.Shot)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Landing().Dist(target)).To(BeNumerically("<", optim.Tolerance))
		})
	})

	It("runs two probe roll-outs per iteration besides the baseline", func() {
		sim := &linearSim{gain: 2}
		o := optim.New(sim, optim.DefaultOptions(), nil)

		res, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 3, Z: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		Expect(res.History).To(HaveLen(res.Iterations))
		Expect(sim.calls.Load()).To(Equal(int64(3*res.Iterations - 2)))
	})

	It("returns the best shot with ErrSearchExhausted at the cap", func() {
		sim := &linearSim{gain: 1}
		opts := optim.DefaultOptions()
		opts.MaxSpeed = 1
		o := optim.New(sim, opts, nil)

		res, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 5})
		Expect(errors.Is(err, dynamo.ErrSearchExhausted)).To(BeTrue())
		Expect(res.Converged).To(BeFalse())
		Expect(res.Iterations).To(Equal(optim.MaxIterations))
		Expect(res.Shot.X).To(BeNumerically("<=", 1))
		Expect(res.Shot.Z).To(BeNumerically(">=", -1))
		Expect(res.Deviation).To(BeNumerically("~", 4, 1e-3))
		for _, d := range res.History {
			Expect(d).To(BeNumerically(">=", res.Deviation))
		}
	})

	It("starts from the grid seed when enabled", func() {
		sim := &linearSim{gain: 1}
		opts := optim.DefaultOptions()
		opts.GridSeed = 11
		o := optim.New(sim, opts, nil)

		res, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 4, Z: -6})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Iterations).To(Equal(1))
		Expect(res.Shot.Dist(dynamo.Vec2{X: 4, Z: -6})).To(BeNumerically("<", 1e-9))
	})

	It("propagates roll-out errors", func() {
		boom := errors.New("boom")
		o := optim.New(&linearSim{gain: 1, err: boom}, optim.DefaultOptions(), nil)

		_, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 1})
		Expect(err).To(MatchError(boom))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		o := optim.New(&linearSim{gain: 1}, optim.DefaultOptions(), nil)
		_, err := o.FindBestShot(cctx, dynamo.State{}, dynamo.Vec2{X: 1})
		Expect(err).To(MatchError(context.Canceled))
	})

	It("rejects invalid options", func() {
		opts := optim.DefaultOptions()
		opts.MaxSpeed = 0
		o := optim.New(&linearSim{gain: 1}, opts, nil)

		_, err := o.FindBestShot(ctx, dynamo.State{}, dynamo.Vec2{X: 1})
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})
})

var _ = Describe("GridSearch", func() {
	It("finds the minimum of a bowl", func() {
		axis := optim.Linspace(-3, 3, 7)
		gs := optim.NewGridSearch([]string{"a", "b"}, [][]float64{axis, axis})

		params, best, err := gs.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
			da, db := p["a"]-1, p["b"]+2
			return da*da + db*db, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(BeNumerically("~", 0, 1e-12))
		Expect(params).To(HaveKeyWithValue("a", BeNumerically("~", 1, 1e-12)))
		Expect(params).To(HaveKeyWithValue("b", BeNumerically("~", -2, 1e-12)))
	})

	It("skips points that fail to evaluate", func() {
		gs := optim.NewGridSearch([]string{"a"}, [][]float64{{0, 1, 2}})

		params, best, err := gs.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
			if p["a"] == 2 {
				return 0, errors.New("bad point")
			}
			return 10 - p["a"], nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(9.0))
		Expect(params["a"]).To(Equal(1.0))
	})

	It("reports exhaustion when nothing evaluates", func() {
		gs := optim.NewGridSearch([]string{"a"}, [][]float64{{0}})
		_, _, err := gs.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
			return 0, errors.New("nope")
		})
		Expect(errors.Is(err, dynamo.ErrSearchExhausted)).To(BeTrue())
	})

	It("evaluates every point exactly once across workers", func() {
		axis := optim.Linspace(0, 9, 10)
		gs := optim.NewGridSearch([]string{"a", "b"}, [][]float64{axis, axis})

		var mu sync.Mutex
		seen := make(map[[2]float64]int)
		params, best, err := gs.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
			mu.Lock()
			seen[[2]float64{p["a"], p["b"]}]++
			mu.Unlock()
			return math.Abs(p["a"]-4) + math.Abs(p["b"]-7), nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(0.0))
		Expect(params).To(Equal(map[string]float64{"a": 4, "b": 7}))
		Expect(seen).To(HaveLen(100))
		for _, n := range seen {
			Expect(n).To(Equal(1))
		}
	})

	It("keeps the first of equal points", func() {
		gs := optim.NewGridSearch([]string{"a"}, [][]float64{{3, 1, 2}})
		params, _, err := gs.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
			return 5, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(params["a"]).To(Equal(3.0))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gs := optim.NewGridSearch([]string{"a"}, [][]float64{{0, 1}})
		_, _, err := gs.Search(ctx, func(context.Context, map[string]float64) (float64, error) {
			return 0, nil
		})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("spaces values evenly", func() {
		Expect(optim.Linspace(-1, 1, 5)).To(Equal([]float64{-1, -0.5, 0, 0.5, 1}))
		Expect(optim.Linspace(2, 3, 1)).To(Equal([]float64{2}))
	})
})
