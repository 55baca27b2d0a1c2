package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/docserver-api/internal/config"
	"github.com/noah-isme/docserver-api/internal/handler"
	"github.com/noah-isme/docserver-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler      *handler.SubmissionHandler
	AdminSubmissionHandler *handler.AdminSubmissionHandler
	DocTypeHandler         *handler.DocTypeHandler
	JWTMiddleware          fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Student lifecycle (create, edit, submit, track)
	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	// Administrator review queue and decisions
	if deps.AdminSubmissionHandler != nil {
		adminSubmissions := app.Group("/api/v1/admin/submissions", jwtMiddleware)
		deps.AdminSubmissionHandler.Register(adminSubmissions)
	}

	// Document-type registry: admin management plus student listing
	if deps.DocTypeHandler != nil {
		adminDocTypes := app.Group("/api/v1/admin/doctypes", jwtMiddleware)
		deps.DocTypeHandler.RegisterAdmin(adminDocTypes)

		adminDeadlines := app.Group("/api/v1/admin/deadlines", jwtMiddleware)
		deps.DocTypeHandler.RegisterDeadlines(adminDeadlines)

		docTypes := app.Group("/api/v1/doctypes", jwtMiddleware)
		deps.DocTypeHandler.RegisterStudent(docTypes)
	}
}
