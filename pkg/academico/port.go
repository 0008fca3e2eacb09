package academico

import (
	"context"

	"github.com/ucbscz/registro/pkg/kernel"
)

// FacultadRepository persists faculties.
type FacultadRepository interface {
	Create(ctx context.Context, f Facultad) (*Facultad, error)
	Update(ctx context.Context, f Facultad) (*Facultad, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Facultad, error)
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[Facultad], error)
}

// EstudianteRepository persists students.
type EstudianteRepository interface {
	Create(ctx context.Context, e Estudiante) (*Estudiante, error)
	Update(ctx context.Context, e Estudiante) (*Estudiante, error)
	Delete(ctx context.Context, registro int64) error
	FindByRegistro(ctx context.Context, registro int64) (*Estudiante, error)
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[Estudiante], error)
}

// MateriaRepository persists course subjects and their prerequisites.
type MateriaRepository interface {
	Create(ctx context.Context, m Materia) (*Materia, error)
	FindByID(ctx context.Context, id int64) (*Materia, error)
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[Materia], error)
}
