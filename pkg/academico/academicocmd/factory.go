// Package academicocmd traduce los tipos de tarea de la cola a comandos
// ejecutables sobre los repositorios del contexto academico.
package academicocmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/uniquex"
)

// Task types accepted by the factory.
const (
	TaskGetFacultad    = "get_facultad"
	TaskCreateFacultad = "create_facultad"
	TaskUpdateFacultad = "update_facultad"
	TaskDeleteFacultad = "delete_facultad"

	TaskGetEstudiante    = "get_estudiante"
	TaskCreateEstudiante = "create_estudiante"
	TaskUpdateEstudiante = "update_estudiante"
	TaskDeleteEstudiante = "delete_estudiante"

	TaskGetMateria    = "get_materia"
	TaskCreateMateria = "create_materia"
)

// Uniqueness-cache namespaces, one per guarded aggregate.
const (
	NamespaceFacultades  = "facultades"
	NamespaceEstudiantes = "estudiantes"
	NamespaceMaterias    = "materias"
)

// Factory builds commands from (taskType, data) pairs. It implements
// jobx.CommandFactory.
type Factory struct {
	facultades  academico.FacultadRepository
	estudiantes academico.EstudianteRepository
	materias    academico.MateriaRepository
	unique      uniquex.Store

	builders map[string]builder
}

type builder func(data json.RawMessage) (jobx.Command, error)

var _ jobx.CommandFactory = (*Factory)(nil)

// NewFactory creates the command factory. The uniqueness store may be nil;
// update and delete commands then skip cache maintenance.
func NewFactory(
	facultades academico.FacultadRepository,
	estudiantes academico.EstudianteRepository,
	materias academico.MateriaRepository,
	unique uniquex.Store,
) *Factory {
	f := &Factory{
		facultades:  facultades,
		estudiantes: estudiantes,
		materias:    materias,
		unique:      unique,
	}

	f.builders = map[string]builder{
		TaskGetFacultad:    f.getFacultad,
		TaskCreateFacultad: f.createFacultad,
		TaskUpdateFacultad: f.updateFacultad,
		TaskDeleteFacultad: f.deleteFacultad,

		TaskGetEstudiante:    f.getEstudiante,
		TaskCreateEstudiante: f.createEstudiante,
		TaskUpdateEstudiante: f.updateEstudiante,
		TaskDeleteEstudiante: f.deleteEstudiante,

		TaskGetMateria:    f.getMateria,
		TaskCreateMateria: f.createMateria,
	}

	return f
}

// TaskTypes lists every task type the factory can resolve.
func (f *Factory) TaskTypes() []string {
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	return types
}

// Create resolves a task type into an executable command.
func (f *Factory) Create(taskType string, data json.RawMessage) (jobx.Command, error) {
	build, ok := f.builders[taskType]
	if !ok {
		return nil, jobx.Errors().NewWithMessage(jobx.ErrUnsupportedTask,
			fmt.Sprintf("Tipo de tarea no soportado: %s", taskType))
	}
	return build(data)
}

// refreshSnapshot re-writes the cached snapshot after a mutation so the
// uniqueness cache stays aligned with the database.
func (f *Factory) refreshSnapshot(ctx context.Context, namespace, key string, v any) error {
	if f.unique == nil || key == "" {
		return nil
	}
	snapshot, err := json.Marshal(v)
	if err != nil {
		return academico.Errors().NewWithCause(academico.ErrDatosInvalidos, err)
	}
	return f.unique.Update(ctx, namespace, key, snapshot)
}

// releaseKey frees a uniqueness claim after its row is deleted.
func (f *Factory) releaseKey(ctx context.Context, namespace, key string) error {
	if f.unique == nil || key == "" {
		return nil
	}
	return f.unique.DeleteUnique(ctx, namespace, key)
}

// decode unmarshals the task payload, mapping bad JSON to a permanent
// validation error.
func decode[T any](data json.RawMessage, dst *T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return academico.Errors().NewWithCause(academico.ErrDatosInvalidos, err)
	}
	return nil
}
