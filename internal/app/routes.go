package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scene-ouverte/newsletter-core/internal/middleware"
	"github.com/scene-ouverte/newsletter-core/internal/modules/newsletter"
	pkgredis "github.com/scene-ouverte/newsletter-core/internal/pkg/redis"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	api := r.Group("/api/v2")
	api.Use(middleware.OptionalAuth())
	// Rate limiting and idempotence need Redis; without it the API still
	// serves, just unthrottled.
	if rc != nil {
		api.Use(middleware.RateLimit(rc.Raw()))
		api.Use(middleware.Idempotence(rc.Raw()))
	}

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/health", a.health)

	store := newsletter.NewStore(a.db)
	svc := newsletter.NewService(store)
	importer := newsletter.NewImporter(store)
	renderer := newsletter.NewRenderer(a.cfg.Newsletter.BaseURL, a.cfg.Newsletter.PostalAddress)
	engine := newsletter.NewEngine(store, a.sender, renderer, newsletter.DefaultClassifier(), newsletter.EngineOptions{
		Interval:    time.Duration(a.cfg.Newsletter.SendIntervalMS) * time.Millisecond,
		Workers:     a.cfg.Newsletter.SendWorkers,
		ErrorSample: a.cfg.Newsletter.ErrorSample,
	}, a.logger)

	newsletter.NewHandler(svc, importer, engine, a.logger).RegisterRoutes(api, authMW)
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
