// cmd/registro/container.go
//
// Root composition root. Owns infrastructure (DB, Redis) and composes
// bounded-context containers. This is the only place that knows about ALL modules.
package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/ucbscz/registro/pkg/academico/academicocontainer"
	"github.com/ucbscz/registro/pkg/config"
	"github.com/ucbscz/registro/pkg/logx"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB    *sqlx.DB
	Redis *redis.Client

	// Bounded-context containers
	Academico *academicocontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis (job queue, uniqueness cache, callback dead letters)
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	logx.Info("✅ Infrastructure initialized")
}

// ---------------------------------------------------------------------------
// Modules — bounded contexts
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	c.Academico = academicocontainer.New(academicocontainer.Deps{
		DB:    c.DB,
		Redis: c.Redis,
		Cfg:   c.Config,
	})
	logx.Info("  ✅ Academico module composed")
}

// Cleanup stops the worker and closes infrastructure connections.
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up container resources...")

	if c.Academico != nil && c.Academico.Worker.Running() {
		c.Academico.Worker.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}

	logx.Info("✅ Cleanup complete")
}
