// Package academicoapi expone el contexto academico sobre HTTP. Las
// mutaciones entran como tareas asincronas; las lecturas van directo a los
// repositorios.
package academicoapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/errx"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/kernel"
)

// Handlers agrupa las rutas HTTP del contexto academico.
type Handlers struct {
	queue       jobx.Queue
	worker      *jobx.Worker
	facultades  academico.FacultadRepository
	estudiantes academico.EstudianteRepository
	materias    academico.MateriaRepository
	queueName   string
	maxRetries  int
}

// NewHandlers crea los handlers. queueName es la cola destino de las tareas y
// maxRetries el limite de intentos por tarea.
func NewHandlers(
	queue jobx.Queue,
	worker *jobx.Worker,
	facultades academico.FacultadRepository,
	estudiantes academico.EstudianteRepository,
	materias academico.MateriaRepository,
	queueName string,
	maxRetries int,
) *Handlers {
	return &Handlers{
		queue:       queue,
		worker:      worker,
		facultades:  facultades,
		estudiantes: estudiantes,
		materias:    materias,
		queueName:   queueName,
		maxRetries:  maxRetries,
	}
}

// RegisterRoutes registra todas las rutas bajo /api/v1.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/tareas", h.createTarea)
	api.Get("/tareas", h.listTareas)
	api.Get("/tareas/:id", h.getTarea)

	api.Post("/worker/start", h.startWorker)
	api.Post("/worker/stop", h.stopWorker)
	api.Get("/worker/status", h.workerStatus)
	api.Post("/worker/pause", h.pauseQueue)
	api.Post("/worker/resume", h.resumeQueue)

	api.Get("/facultades", h.listFacultades)
	api.Get("/facultades/:id", h.getFacultad)
	api.Get("/estudiantes", h.listEstudiantes)
	api.Get("/estudiantes/:registro", h.getEstudiante)
	api.Get("/materias", h.listMaterias)
	api.Get("/materias/:id", h.getMateria)
}

// tareaRequest is the enqueue payload: which task, its data and an optional
// callback URL notified when the job reaches a terminal state.
type tareaRequest struct {
	Task     string          `json:"task"`
	Data     json.RawMessage `json:"data"`
	Callback string          `json:"callback"`
}

// createTarea encola una tarea y responde 202 con su id.
func (h *Handlers) createTarea(c *fiber.Ctx) error {
	var req tareaRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Cuerpo de la peticion invalido").WithDetail("cause", err.Error())
	}
	if req.Task == "" {
		return errx.Validation("El campo task es obligatorio")
	}

	id, err := h.queue.Enqueue(c.Context(), jobx.Job{
		Type:        req.Task,
		Queue:       h.queueName,
		Payload:     req.Data,
		CallbackURL: req.Callback,
		MaxRetries:  h.maxRetries,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Tarea encolada",
		"tareaId": id,
	})
}

// getTarea devuelve el estado completo de una tarea.
func (h *Handlers) getTarea(c *fiber.Ctx) error {
	info, err := h.queue.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// listTareas lista tareas, opcionalmente filtradas por ?estado=a,b,c.
func (h *Handlers) listTareas(c *fiber.Ctx) error {
	var statuses []jobx.Status
	if raw := c.Query("estado"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := jobx.Status(strings.TrimSpace(s))
			if !validStatus(status) {
				return errx.Validation("Estado desconocido").WithDetail("estado", string(status))
			}
			statuses = append(statuses, status)
		}
	}

	jobs, err := h.queue.ListJobs(c.Context(), statuses...)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tareas": jobs, "total": len(jobs)})
}

func validStatus(s jobx.Status) bool {
	for _, known := range jobx.Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// startWorker arranca el pool de workers. Idempotente.
func (h *Handlers) startWorker(c *fiber.Ctx) error {
	h.worker.Start()
	return c.JSON(fiber.Map{"message": "Worker iniciado", "running": h.worker.Running()})
}

// stopWorker detiene el pool drenando los trabajos en curso. Idempotente.
func (h *Handlers) stopWorker(c *fiber.Ctx) error {
	h.worker.Stop()
	return c.JSON(fiber.Map{"message": "Worker detenido", "running": h.worker.Running()})
}

// workerStatus reporta si el pool esta corriendo y si la cola esta pausada.
func (h *Handlers) workerStatus(c *fiber.Ctx) error {
	paused, err := h.queue.Paused(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"running": h.worker.Running(), "paused": paused})
}

// pauseQueue pausa la cola completa sin tocar el estado de las tareas.
func (h *Handlers) pauseQueue(c *fiber.Ctx) error {
	if err := h.queue.Pause(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Cola pausada", "paused": true})
}

// resumeQueue reanuda la cola.
func (h *Handlers) resumeQueue(c *fiber.Ctx) error {
	if err := h.queue.Resume(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Cola reanudada", "paused": false})
}

func (h *Handlers) listFacultades(c *fiber.Ctx) error {
	page, err := h.facultades.List(c.Context(), paginationFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) getFacultad(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errx.Validation("El id debe ser un numero entero")
	}
	facultad, err := h.facultades.FindByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(facultad)
}

func (h *Handlers) listEstudiantes(c *fiber.Ctx) error {
	page, err := h.estudiantes.List(c.Context(), paginationFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) getEstudiante(c *fiber.Ctx) error {
	registro, err := strconv.ParseInt(c.Params("registro"), 10, 64)
	if err != nil {
		return errx.Validation("El registro debe ser un numero entero")
	}
	estudiante, err := h.estudiantes.FindByRegistro(c.Context(), registro)
	if err != nil {
		return err
	}
	return c.JSON(estudiante)
}

func (h *Handlers) listMaterias(c *fiber.Ctx) error {
	page, err := h.materias.List(c.Context(), paginationFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) getMateria(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errx.Validation("El id debe ser un numero entero")
	}
	materia, err := h.materias.FindByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(materia)
}

func paginationFromQuery(c *fiber.Ctx) kernel.PaginationOptions {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("pageSize", 10)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return kernel.PaginationOptions{Page: page, PageSize: size}
}
