package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the collaborators the routes need. LimiterStorage may be
// nil, in which case rate-limit counters are kept in memory.
type Dependencies struct {
	Config         config.Config
	Auth           *auth.Service
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// operational routes first so they are not subject to API middleware
	setup(app, NewHttpRouter(deps.Config), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
