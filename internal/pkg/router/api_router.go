package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ManuelReschke/foxauth/app/controllers"
	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	cfg := h.deps.Config
	limits := cfg.RateLimit
	store := h.deps.LimiterStorage

	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	v1 := api.Group("/v1")
	v1.Get("/", controllers.HandleWelcome)

	authCtrl := controllers.NewAuthController(h.deps.Auth)
	verifyCtrl := controllers.NewVerificationController(h.deps.Auth, cfg.Verification.OnSuccess)
	socialCtrl := controllers.NewSocialController(h.deps.Auth)
	bearer := middleware.RequireBearer(h.deps.Auth)

	a := v1.Group("/auth")
	a.Post("/register", middleware.RateLimit("register", limits.Register, limits.Window, store), authCtrl.HandleRegister)
	a.Post("/login", middleware.RateLimit("login", limits.Login, limits.Window, store), authCtrl.HandleLogin)

	a.Get("/email/verify/:id/:hash", verifyCtrl.HandleVerify)
	a.Post("/email/verification-notification",
		bearer,
		middleware.RateLimit("verification-notification", limits.Resend, limits.Window, store),
		verifyCtrl.HandleResend,
	)

	a.Get("/socialite/:provider", socialCtrl.HandleRedirect)
	a.Get("/socialite/:provider/callback", socialCtrl.HandleCallback)

	a.Get("/user", bearer, middleware.RequireScopes(config.ScopeReadContent), authCtrl.HandleUser)
	a.Post("/logout", bearer, authCtrl.HandleLogout)
	a.Post("/refresh", bearer, authCtrl.HandleRefresh)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
