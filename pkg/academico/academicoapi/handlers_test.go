package academicoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/academico/academicoapi"
	"github.com/ucbscz/registro/pkg/academico/academicocmd"
	"github.com/ucbscz/registro/pkg/academico/academicoinfra"
	"github.com/ucbscz/registro/pkg/errx"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/jobx/jobxmemory"
	"github.com/ucbscz/registro/pkg/uniquex/uniquexmemory"
)

type testEnv struct {
	app        *fiber.App
	queue      jobx.Queue
	worker     *jobx.Worker
	facultades academico.FacultadRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	facultades := academicoinfra.NewMemoryFacultadRepository()
	estudiantes := academicoinfra.NewMemoryEstudianteRepository()
	materias := academicoinfra.NewMemoryMateriaRepository()
	store := uniquexmemory.NewMemoryStore()
	queue := jobxmemory.NewMemoryQueue()

	factory := academicocmd.NewFactory(facultades, estudiantes, materias, store)
	worker := jobx.NewWorker(queue, factory,
		jobx.WithQueues("tasksQueue"),
		jobx.WithConcurrency(2),
		jobx.WithPollInterval(10*time.Millisecond),
		jobx.WithDequeueTimeout(20*time.Millisecond),
		jobx.WithRetryDelay(10*time.Millisecond),
		jobx.WithShutdownTimeout(2*time.Second),
		jobx.WithUniqueStore(store),
	)
	t.Cleanup(func() {
		if worker.Running() {
			worker.Stop()
		}
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*errx.Error); ok {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	handlers := academicoapi.NewHandlers(queue, worker, facultades, estudiantes, materias, "tasksQueue", 3)
	handlers.RegisterRoutes(app)

	return &testEnv{app: app, queue: queue, worker: worker, facultades: facultades}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		out = nil
	}
	return resp, out
}

func TestCreateTarea(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/api/v1/tareas", fiber.Map{
		"task": "create_facultad",
		"data": fiber.Map{"nombre": "Ingenieria", "sigla": "ING"},
	})
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d (%v)", resp.StatusCode, body)
	}
	id, _ := body["tareaId"].(string)
	if id == "" {
		t.Fatalf("expected a tareaId, got %v", body)
	}

	// The worker is not running: the job stays waiting.
	resp, body = env.request(t, http.MethodGet, "/api/v1/tareas/"+id, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != string(jobx.StatusWaiting) {
		t.Fatalf("expected waiting job, got %v", body["status"])
	}
}

func TestCreateTarea_MissingTask(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/api/v1/tareas", fiber.Map{
		"data": fiber.Map{"nombre": "X"},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetTarea_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/api/v1/tareas/no-such-id", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListTareas_InvalidEstado(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/api/v1/tareas?estado=exploded", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWorkerLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodGet, "/api/v1/worker/status", nil)
	if resp.StatusCode != fiber.StatusOK || body["running"] != false {
		t.Fatalf("expected stopped worker, got %d %v", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodPost, "/api/v1/worker/start", nil)
	if resp.StatusCode != fiber.StatusOK || body["running"] != true {
		t.Fatalf("start failed: %d %v", resp.StatusCode, body)
	}

	// Starting twice is harmless.
	resp, body = env.request(t, http.MethodPost, "/api/v1/worker/start", nil)
	if resp.StatusCode != fiber.StatusOK || body["running"] != true {
		t.Fatalf("second start failed: %d %v", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodPost, "/api/v1/worker/stop", nil)
	if resp.StatusCode != fiber.StatusOK || body["running"] != false {
		t.Fatalf("stop failed: %d %v", resp.StatusCode, body)
	}
}

func TestPauseAndResumeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/api/v1/worker/pause", nil)
	if resp.StatusCode != fiber.StatusOK || body["paused"] != true {
		t.Fatalf("pause failed: %d %v", resp.StatusCode, body)
	}

	_, status := env.request(t, http.MethodGet, "/api/v1/worker/status", nil)
	if status["paused"] != true {
		t.Fatalf("status should report paused, got %v", status)
	}

	resp, body = env.request(t, http.MethodPost, "/api/v1/worker/resume", nil)
	if resp.StatusCode != fiber.StatusOK || body["paused"] != false {
		t.Fatalf("resume failed: %d %v", resp.StatusCode, body)
	}
}

func TestTareaEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	if resp, _ := env.request(t, http.MethodPost, "/api/v1/worker/start", nil); resp.StatusCode != fiber.StatusOK {
		t.Fatal("start failed")
	}

	_, body := env.request(t, http.MethodPost, "/api/v1/tareas", fiber.Map{
		"task": "create_facultad",
		"data": fiber.Map{"nombre": "Ciencias Sociales", "sigla": "SOC"},
	})
	id, _ := body["tareaId"].(string)
	if id == "" {
		t.Fatalf("no tareaId in %v", body)
	}

	deadline := time.Now().Add(3 * time.Second)
	var tarea map[string]any
	for time.Now().Before(deadline) {
		_, tarea = env.request(t, http.MethodGet, "/api/v1/tareas/"+id, nil)
		if s, _ := tarea["status"].(string); jobx.Status(s).Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if tarea["status"] != string(jobx.StatusCompleted) {
		t.Fatalf("expected completed tarea, got %v", tarea)
	}

	result, _ := tarea["result"].(map[string]any)
	if result["success"] != true {
		t.Fatalf("unexpected result: %v", result)
	}
	facultad, _ := result["facultad"].(map[string]any)
	if facultad["sigla"] != "SOC" {
		t.Fatalf("unexpected facultad: %v", facultad)
	}

	// The row is visible through the sync read endpoint.
	resp, page := env.request(t, http.MethodGet, "/api/v1/facultades?page=1&pageSize=10", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list failed: %d", resp.StatusCode)
	}
	items, _ := page["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 facultad, got %v", page)
	}

	// Duplicate create for the same sigla completes softly as a duplicate.
	_, body = env.request(t, http.MethodPost, "/api/v1/tareas", fiber.Map{
		"task": "create_facultad",
		"data": fiber.Map{"nombre": "Ciencias Sociales", "sigla": "SOC"},
	})
	dupID, _ := body["tareaId"].(string)

	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_, tarea = env.request(t, http.MethodGet, "/api/v1/tareas/"+dupID, nil)
		if s, _ := tarea["status"].(string); jobx.Status(s).Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if tarea["status"] != string(jobx.StatusCompleted) {
		t.Fatalf("duplicate should complete, got %v", tarea)
	}
	dupResult, _ := tarea["result"].(map[string]any)
	if dupResult["duplicate"] != true || dupResult["success"] != false {
		t.Fatalf("expected duplicate outcome, got %v", dupResult)
	}
}

func TestGetFacultadEndpoint(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.facultades.Create(context.Background(), academico.Facultad{
		Nombre: "Humanidades", Sigla: "HUM",
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	resp, body := env.request(t, http.MethodGet, "/api/v1/facultades/1", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["sigla"] != created.Sigla {
		t.Fatalf("unexpected facultad: %v", body)
	}

	resp, _ = env.request(t, http.MethodGet, "/api/v1/facultades/99", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.request(t, http.MethodGet, "/api/v1/facultades/abc", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.StatusCode)
	}
}
