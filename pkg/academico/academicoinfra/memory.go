package academicoinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/kernel"
)

// MemoryFacultadRepository guarda facultades en memoria. Para desarrollo y tests.
type MemoryFacultadRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]academico.Facultad
}

// NewMemoryFacultadRepository crea un repositorio vacio.
func NewMemoryFacultadRepository() *MemoryFacultadRepository {
	return &MemoryFacultadRepository{nextID: 1, rows: make(map[int64]academico.Facultad)}
}

func (r *MemoryFacultadRepository) Create(_ context.Context, f academico.Facultad) (*academico.Facultad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Sigla == f.Sigla {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("sigla", f.Sigla)
		}
	}

	now := time.Now().UTC()
	f.ID = r.nextID
	r.nextID++
	f.CreatedAt = now
	f.UpdatedAt = now
	r.rows[f.ID] = f
	return &f, nil
}

func (r *MemoryFacultadRepository) Update(_ context.Context, f academico.Facultad) (*academico.Facultad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[f.ID]
	if !ok {
		return nil, academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", f.ID)
	}
	row.Nombre = f.Nombre
	row.Sigla = f.Sigla
	row.UpdatedAt = time.Now().UTC()
	r.rows[f.ID] = row
	return &row, nil
}

func (r *MemoryFacultadRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryFacultadRepository) FindByID(_ context.Context, id int64) (*academico.Facultad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", id)
	}
	return &row, nil
}

func (r *MemoryFacultadRepository) List(_ context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Facultad], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]academico.Facultad, 0, len(r.rows))
	for _, row := range r.rows {
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Nombre < all[j].Nombre })

	return paginate(all, opts), nil
}

// MemoryEstudianteRepository guarda estudiantes en memoria.
type MemoryEstudianteRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]academico.Estudiante // keyed by registro
}

// NewMemoryEstudianteRepository crea un repositorio vacio.
func NewMemoryEstudianteRepository() *MemoryEstudianteRepository {
	return &MemoryEstudianteRepository{nextID: 1, rows: make(map[int64]academico.Estudiante)}
}

func (r *MemoryEstudianteRepository) Create(_ context.Context, e academico.Estudiante) (*academico.Estudiante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[e.Registro]; ok {
		return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("registro", e.Registro)
	}
	for _, row := range r.rows {
		if row.CI == e.CI {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("ci", e.CI)
		}
	}

	now := time.Now().UTC()
	e.ID = r.nextID
	r.nextID++
	e.CreatedAt = now
	e.UpdatedAt = now
	r.rows[e.Registro] = e
	return &e, nil
}

func (r *MemoryEstudianteRepository) Update(_ context.Context, e academico.Estudiante) (*academico.Estudiante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[e.Registro]
	if !ok {
		return nil, academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", e.Registro)
	}
	row.Nombre = e.Nombre
	row.Apellido = e.Apellido
	row.Email = e.Email
	row.FacultadID = e.FacultadID
	row.UpdatedAt = time.Now().UTC()
	r.rows[e.Registro] = row
	return &row, nil
}

func (r *MemoryEstudianteRepository) Delete(_ context.Context, registro int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[registro]; !ok {
		return academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", registro)
	}
	delete(r.rows, registro)
	return nil
}

func (r *MemoryEstudianteRepository) FindByRegistro(_ context.Context, registro int64) (*academico.Estudiante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[registro]
	if !ok {
		return nil, academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", registro)
	}
	return &row, nil
}

func (r *MemoryEstudianteRepository) List(_ context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Estudiante], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]academico.Estudiante, 0, len(r.rows))
	for _, row := range r.rows {
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Nombre < all[j].Nombre })

	return paginate(all, opts), nil
}

// MemoryMateriaRepository guarda materias en memoria.
type MemoryMateriaRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]academico.Materia
}

// NewMemoryMateriaRepository crea un repositorio vacio.
func NewMemoryMateriaRepository() *MemoryMateriaRepository {
	return &MemoryMateriaRepository{nextID: 1, rows: make(map[int64]academico.Materia)}
}

func (r *MemoryMateriaRepository) Create(_ context.Context, m academico.Materia) (*academico.Materia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Sigla == m.Sigla {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("sigla", m.Sigla)
		}
	}
	for _, prereqID := range m.Prerequisitos {
		if _, ok := r.rows[prereqID]; !ok {
			return nil, academico.Errors().New(academico.ErrMateriaNotFound).WithDetail("prerequisito_id", prereqID)
		}
	}

	now := time.Now().UTC()
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = now
	m.UpdatedAt = now
	r.rows[m.ID] = m
	return &m, nil
}

func (r *MemoryMateriaRepository) FindByID(_ context.Context, id int64) (*academico.Materia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, academico.Errors().New(academico.ErrMateriaNotFound).WithDetail("id", id)
	}
	return &row, nil
}

func (r *MemoryMateriaRepository) List(_ context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Materia], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]academico.Materia, 0, len(r.rows))
	for _, row := range r.rows {
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Nivel != all[j].Nivel {
			return all[i].Nivel < all[j].Nivel
		}
		return all[i].Sigla < all[j].Sigla
	})

	return paginate(all, opts), nil
}

func paginate[T any](all []T, opts kernel.PaginationOptions) kernel.Paginated[T] {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 {
		size = 10
	}

	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	return kernel.NewPaginated(all[start:end], page, size, len(all))
}
