// Package server binds the HTTP paths to the lookup handlers and serves them
// on an already acquired listener.
package server

import (
	"log/slog"

	"github.com/TomasB/proxylookup/internal/handler/health"
	"github.com/TomasB/proxylookup/internal/handler/proxy"
	"github.com/TomasB/proxylookup/internal/lookup"
	"github.com/TomasB/proxylookup/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds everything the router dispatches to.
type RouterConfig struct {
	Gateway  *lookup.Gateway
	Draining health.Draining
	// Instrumentation and Gatherer are optional; /metrics is only mounted
	// when Gatherer is set.
	Instrumentation *metrics.Instrumentation
	Gatherer        prometheus.Gatherer
}

// NewRouter creates the gin engine serving the lookup API.
func NewRouter(logger *slog.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	healthHandler := health.NewHandler(cfg.Draining)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	proxyHandler := proxy.NewHandler(cfg.Gateway, cfg.Instrumentation)
	router.GET("/", proxyHandler.Lookup)
	router.GET("/batch", proxyHandler.Batch)
	router.GET("/status", proxyHandler.Status)

	return router
}
