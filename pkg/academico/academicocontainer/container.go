// Package academicocontainer compone el contexto academico: repositorios,
// cola de tareas, worker, notificador de callbacks y handlers HTTP.
package academicocontainer

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/academico/academicoapi"
	"github.com/ucbscz/registro/pkg/academico/academicocmd"
	"github.com/ucbscz/registro/pkg/academico/academicoinfra"
	"github.com/ucbscz/registro/pkg/config"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/jobx/jobxredis"
	"github.com/ucbscz/registro/pkg/notifx"
	"github.com/ucbscz/registro/pkg/notifx/notifxredis"
	"github.com/ucbscz/registro/pkg/notifx/notifxwebhook"
	"github.com/ucbscz/registro/pkg/uniquex"
	"github.com/ucbscz/registro/pkg/uniquex/uniquexredis"
)

// Deps is the infrastructure the context needs from the composition root.
type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config
}

// Container wires the academico module.
type Container struct {
	Facultades  academico.FacultadRepository
	Estudiantes academico.EstudianteRepository
	Materias    academico.MateriaRepository

	Queue    jobx.Queue
	Unique   uniquex.Store
	Notifier *notifx.Client
	Factory  *academicocmd.Factory
	Worker   *jobx.Worker
	Handlers *academicoapi.Handlers
}

// New builds the module from shared infrastructure.
func New(deps Deps) *Container {
	cfg := deps.Cfg

	facultades := academicoinfra.NewPostgresFacultadRepository(deps.DB)
	estudiantes := academicoinfra.NewPostgresEstudianteRepository(deps.DB)
	materias := academicoinfra.NewPostgresMateriaRepository(deps.DB)

	unique := uniquexredis.NewRedisStore(deps.Redis, "")
	queue := jobxredis.NewRedisQueue(deps.Redis, "")

	sender := notifxwebhook.NewWebhookSender(cfg.Callback.SigningKey, cfg.Callback.Timeout)
	dead := notifxredis.NewRedisDeadLetter(deps.Redis, "")
	notifier := notifx.NewClient(sender,
		notifx.WithMaxAttempts(cfg.Callback.MaxAttempts),
		notifx.WithRetryDelay(cfg.Callback.RetryDelay),
		notifx.WithDeadLetter(dead),
	)

	factory := academicocmd.NewFactory(facultades, estudiantes, materias, unique)

	worker := jobx.NewWorker(queue, factory,
		jobx.WithQueues(cfg.Jobs.Queues...),
		jobx.WithConcurrency(cfg.Jobs.Concurrency),
		jobx.WithPollInterval(cfg.Jobs.PollInterval),
		jobx.WithDequeueTimeout(cfg.Jobs.DequeueTimeout),
		jobx.WithShutdownTimeout(cfg.Jobs.ShutdownTimeout),
		jobx.WithJobTimeout(cfg.Jobs.JobTimeout),
		jobx.WithRetryDelay(cfg.Jobs.RetryDelay),
		jobx.WithUniqueStore(unique),
		jobx.WithNotifier(notifier),
	)

	handlers := academicoapi.NewHandlers(queue, worker, facultades, estudiantes, materias,
		cfg.Jobs.Queues[0], cfg.Jobs.MaxRetries)

	return &Container{
		Facultades:  facultades,
		Estudiantes: estudiantes,
		Materias:    materias,
		Queue:       queue,
		Unique:      unique,
		Notifier:    notifier,
		Factory:     factory,
		Worker:      worker,
		Handlers:    handlers,
	}
}
