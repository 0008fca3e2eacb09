package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/ucbscz/registro/pkg/asyncx"
	"github.com/ucbscz/registro/pkg/config"
	"github.com/ucbscz/registro/pkg/errx"
	"github.com/ucbscz/registro/pkg/logx"
)

func main() {
	// 1. Initialize Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))

	logx.Info("🚀 Starting Registro Academico API Server...")

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Registro Academico API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 6. Health Check
	app.Get("/health", healthCheckHandler(container))

	// 7. Register Routes
	// Tareas + worker + lecturas: /api/v1/*
	container.Academico.Handlers.RegisterRoutes(app)
	logx.Info("✓ Academico routes registered")

	// 8. Start the worker pool with the process
	container.Academico.Worker.Start()

	// 9. 404 Handler
	app.Use(notFoundHandler)

	// 10. Start Server with Graceful Shutdown
	startServer(app, cfg)
}

// healthCheckHandler reports process, database and Redis health. Both
// dependencies are probed in parallel.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "registro-api",
			"worker":  container.Academico.Worker.Running(),
		}

		dbCheck := asyncx.Run(func() (bool, error) {
			return true, container.DB.Ping()
		})
		redisCheck := asyncx.Run(func() (bool, error) {
			return true, container.Redis.Ping(c.Context()).Err()
		})

		if _, err := dbCheck.Await(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if _, err := redisCheck.Await(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	// Fiber's own errors (body too large, method not allowed, ...)
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	// Domain errors carry their own HTTP status
	if e, ok := err.(*errx.Error); ok {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"request_id": c.Get("X-Request-ID"),
	})
}

// startServer starts the server and blocks until a shutdown signal arrives.
func startServer(app *fiber.App, cfg *config.Config) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", cfg.Server.Port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", cfg.Server.Port)

		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
