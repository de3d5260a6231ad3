package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/asset-tracker/internal/api/http/handlers"
	"github.com/spec-kit/asset-tracker/internal/auth"
	"github.com/spec-kit/asset-tracker/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Assets         *handlers.AssetsHandler
	History        *handlers.AssetHistoryHandler
	Categories     *handlers.CategoriesHandler
	Employees      *handlers.EmployeesHandler
	Requests       *handlers.AssetRequestsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// UploadDir is served read-only under UploadPrefix when both are set.
	UploadDir    string
	UploadPrefix string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir, fiber.Static{Browse: false})
	}

	authed := cfg.AuthMiddleware.Handle
	privileged := auth.RequirePrivileged()
	admin := auth.RequireAdmin()

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", authed, cfg.Auth.Me)
	authGroup.Put("/profile", authed, cfg.Auth.UpdateProfile)
	authGroup.Put("/password", authed, cfg.Auth.ChangePassword)

	assets := app.Group("/assets", authed)
	assets.Get("/stock/summary", cfg.Assets.StockSummary)
	assets.Get("/", cfg.Assets.List)
	assets.Get("/:id", cfg.Assets.Get)
	assets.Post("/", privileged, cfg.Assets.Create)
	assets.Put("/:id", privileged, cfg.Assets.Update)
	assets.Delete("/:id", admin, cfg.Assets.Delete)

	history := app.Group("/asset-history", authed)
	history.Get("/", cfg.History.List)
	history.Get("/timeline/:assetId", cfg.History.Timeline)
	history.Get("/report/pdf", cfg.History.ReportPDF)
	history.Post("/issue", privileged, cfg.History.Issue)
	history.Post("/return", privileged, cfg.History.Return)
	history.Post("/scrap", admin, cfg.History.Scrap)

	categories := app.Group("/categories", authed)
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", privileged, cfg.Categories.Create)
	categories.Put("/:id", privileged, cfg.Categories.Update)
	categories.Delete("/:id", admin, cfg.Categories.Delete)

	employees := app.Group("/employees", authed)
	employees.Get("/departments/list", cfg.Employees.Departments)
	employees.Get("/", cfg.Employees.List)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Post("/", privileged, cfg.Employees.Create)
	employees.Put("/:id", privileged, cfg.Employees.Update)
	employees.Delete("/:id", admin, cfg.Employees.Delete)

	requests := app.Group("/asset-requests", authed)
	requests.Get("/pending/count", privileged, cfg.Requests.PendingCount)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Post("/", cfg.Requests.Create)
	requests.Patch("/:id/review", privileged, cfg.Requests.Review)
	requests.Delete("/:id", cfg.Requests.Delete)
}
