package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"crud-admin/internal/admin"
	"crud-admin/internal/auth"
	"crud-admin/internal/config"
	"crud-admin/internal/engine"
	"crud-admin/internal/logger"
	"crud-admin/internal/metadata"
	"crud-admin/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Dev)
	defer logger.Sync()
	logger.Info("Config loaded (port: %d, driver: %s, db: %s)", cfg.Server.Port, cfg.Database.Driver, cfg.Database.Name)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	// 3. Schema provider: live introspection behind a memoizing registry
	introspector := store.NewIntrospector(db)
	reg := metadata.NewRegistry(introspector)
	if tables, err := introspector.ListTables(ctx); err != nil {
		logger.Warn("Failed to list tables: %v", err)
	} else {
		logger.Info("Found %d tables", len(tables))
	}

	svc := engine.NewService(db, reg, introspector, cfg.Query)

	// 4. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
		Immutable:    true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(engine.RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency} ${respHeader:X-Request-ID}\n",
	}))

	// 5. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 6. Auth middleware (disabled without a secret)
	var authMW, adminMW fiber.Handler
	if cfg.Auth.JWTSecret != "" {
		authMW = auth.Middleware(cfg.Auth.JWTSecret)
		adminMW = auth.RequireRole("admin")
	} else {
		logger.Warn("auth.jwt_secret is empty: /api is unauthenticated")
	}

	// 7. Schema routes first so _schema is never treated as a table
	admin.RegisterSchemaRoutes(app, admin.NewHandler(svc, reg), authMW, adminMW)

	// 8. Table routes
	var apiMW []fiber.Handler
	if authMW != nil {
		apiMW = append(apiMW, authMW)
	}
	engine.RegisterRoutes(app, engine.NewHandler(svc, cfg.Query), apiMW...)

	// 9. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("Server stopped: %v", err)
	}
}
