// Package api serves the simulator over HTTP with gin.
package api

import (
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/puttsim/internal/service"
)

// NewRouter returns a gin engine with every route registered.
func NewRouter(svc *service.Service, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(logger))
	SetupRoutes(router, svc)
	return router
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, svc *service.Service) {
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck(svc))
		v1.POST("/eval", Eval)
		v1.POST("/simulate", Simulate(svc))
		v1.POST("/shot", Shot(svc))
		v1.POST("/plan", Plan(svc))
	}
}

func requestLog(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Printf("[API] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
