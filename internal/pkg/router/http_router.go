package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/foxauth/app/controllers"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/docs"
)

// HttpRouter installs the non-API routes: health, metrics and docs.
type HttpRouter struct {
	cfg config.Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", controllers.HandleHealth)

	// fiber metrics
	if h.cfg.Metrics.Password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.cfg.Metrics.User: h.cfg.Metrics.Password,
			},
		}), monitor.New(monitor.Config{Title: h.cfg.AppName + " Metrics"}))
	} else {
		log.Warn("METRICS_PASSWORD not set, /metrics disabled")
	}

	// SWAGGER / OPENAPI
	app.Use(docs.Handler())
}

func NewHttpRouter(cfg config.Config) *HttpRouter {
	return &HttpRouter{cfg: cfg}
}
