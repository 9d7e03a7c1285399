package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
	"github.com/san-kum/puttsim/internal/service"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "puttsim-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
			"course":  svc.String(),
		})
	}
}

type evalRequest struct {
	Formula string    `json:"formula" binding:"required"`
	X       float64   `json:"x"`
	Z       float64   `json:"z"`
	Time    float64   `json:"time"`
	Aux     []float64 `json:"aux,omitempty"`
}

// Eval returns the height and slope of a formula at one point.
func Eval(c *gin.Context) {
	var req evalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. A formula is required."})
		return
	}

	res, err := service.Eval(req.Formula, req.X, req.Z, req.Time, req.Aux)
	if err != nil {
		fail(c, err)
		return
	}
	if !finite(res.Height, res.Gradient.X, res.Gradient.Z) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "formula is not finite at this point"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type simulateRequest struct {
	Formula    string      `json:"formula,omitempty"`
	Start      dynamo.Vec2 `json:"start"`
	Shot       dynamo.Vec2 `json:"shot"`
	Trajectory bool        `json:"trajectory,omitempty"`
}

// Simulate rolls one shot to rest.
func Simulate(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req simulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Start and shot required."})
			return
		}
		s, err := svc.WithFormula(req.Formula)
		if err != nil {
			fail(c, err)
			return
		}

		res, err := s.Simulate(req.Start, req.Shot, req.Trajectory)
		if err != nil {
			fail(c, err)
			return
		}

		body := gin.H{"rollout": res.Rollout, "landing": res.Rollout.Landing(), "metrics": res.Metrics}
		if res.Trajectory != nil {
			body["path"] = res.Trajectory.Positions()
		}
		c.JSON(http.StatusOK, body)
	}
}

type shotRequest struct {
	Formula string       `json:"formula,omitempty"`
	Start   *dynamo.Vec2 `json:"start,omitempty"`
	Target  *dynamo.Vec2 `json:"target,omitempty"`
}

// Shot finds the launch velocity to the target. Start and target default
// to the course's.
func Shot(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req shotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
			return
		}
		s, err := svc.WithFormula(req.Formula)
		if err != nil {
			fail(c, err)
			return
		}

		start, target := s.Course().Start, s.Course().Target.Pos
		if req.Start != nil {
			start = *req.Start
		}
		if req.Target != nil {
			target = *req.Target
		}

		res, err := s.Shot(c.Request.Context(), start, target)
		if errors.Is(err, dynamo.ErrSearchExhausted) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "result": res})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type planRequest struct {
	Formula string         `json:"formula,omitempty"`
	Start   *dynamo.Vec2   `json:"start,omitempty"`
	Target  *course.Target `json:"target,omitempty"`
}

// Plan finds a shot sequence into the hole.
func Plan(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req planRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
			return
		}
		s, err := svc.WithFormula(req.Formula)
		if err != nil {
			fail(c, err)
			return
		}

		start, target := s.Course().Start, s.Course().Target
		if req.Start != nil {
			start = *req.Start
		}
		if req.Target != nil {
			target = *req.Target
		}

		plan, err := s.Plan(c.Request.Context(), start, target)
		if errors.Is(err, dynamo.ErrSearchExhausted) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "iterations": plan.Iterations})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}

// fail maps an error onto a status code.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, expr.ErrMalformedExpression),
		errors.Is(err, expr.ErrInsufficientOperands),
		errors.Is(err, dynamo.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, expr.ErrDomain),
		errors.Is(err, dynamo.ErrDivergentSimulation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
