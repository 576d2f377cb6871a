package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coffeeshop-service/internal/api/http/handlers"
	"github.com/spec-kit/coffeeshop-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Drinks         *handlers.DrinksHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. GET /drinks is the only public drink
// endpoint; everything else requires a verified token plus the route's
// permission.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/drinks", cfg.Drinks.ListDrinks)
	app.Get("/drinks-detail",
		cfg.AuthMiddleware.Authenticate,
		auth.RequirePermission("get:drinks-detail"),
		cfg.Drinks.ListDrinksDetail)
	app.Post("/drinks",
		cfg.AuthMiddleware.Authenticate,
		auth.RequirePermission("post:drinks"),
		cfg.Drinks.CreateDrink)
	app.Patch("/drinks/:id",
		cfg.AuthMiddleware.Authenticate,
		auth.RequirePermission("patch:drinks"),
		cfg.Drinks.PatchDrink)
	app.Delete("/drinks/:id",
		cfg.AuthMiddleware.Authenticate,
		auth.RequirePermission("delete:drinks"),
		cfg.Drinks.DeleteDrink)
}
