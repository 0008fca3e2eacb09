// Package academicoinfra contiene las implementaciones en PostgreSQL de los
// repositorios del contexto academico.
package academicoinfra

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/kernel"
)

// PostgresFacultadRepository es la implementación en PostgreSQL de FacultadRepository.
type PostgresFacultadRepository struct {
	db *sqlx.DB
}

// NewPostgresFacultadRepository crea una nueva instancia del repositorio.
func NewPostgresFacultadRepository(db *sqlx.DB) academico.FacultadRepository {
	return &PostgresFacultadRepository{db: db}
}

// Create inserta una facultad y devuelve la fila persistida.
func (r *PostgresFacultadRepository) Create(ctx context.Context, f academico.Facultad) (*academico.Facultad, error) {
	query := `
		INSERT INTO facultades (nombre, sigla, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, nombre, sigla, created_at, updated_at`

	var created academico.Facultad
	err := r.db.GetContext(ctx, &created, query, f.Nombre, f.Sigla)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("sigla", f.Sigla)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &created, nil
}

// Update actualiza una facultad existente por id.
func (r *PostgresFacultadRepository) Update(ctx context.Context, f academico.Facultad) (*academico.Facultad, error) {
	query := `
		UPDATE facultades
		SET nombre = $2, sigla = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, nombre, sigla, created_at, updated_at`

	var updated academico.Facultad
	err := r.db.GetContext(ctx, &updated, query, f.ID, f.Nombre, f.Sigla)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", f.ID)
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("sigla", f.Sigla)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &updated, nil
}

// Delete elimina una facultad por id.
func (r *PostgresFacultadRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM facultades WHERE id = $1`, id)
	if err != nil {
		return academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	if rows == 0 {
		return academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", id)
	}
	return nil
}

// FindByID busca una facultad por id.
func (r *PostgresFacultadRepository) FindByID(ctx context.Context, id int64) (*academico.Facultad, error) {
	var f academico.Facultad
	err := r.db.GetContext(ctx, &f, `SELECT * FROM facultades WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, academico.Errors().New(academico.ErrFacultadNotFound).WithDetail("id", id)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &f, nil
}

// List devuelve facultades paginadas, ordenadas por nombre.
func (r *PostgresFacultadRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Facultad], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM facultades`); err != nil {
		return kernel.Paginated[academico.Facultad]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	items := []academico.Facultad{}
	query := `SELECT * FROM facultades ORDER BY nombre ASC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[academico.Facultad]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// PostgresEstudianteRepository es la implementación en PostgreSQL de EstudianteRepository.
type PostgresEstudianteRepository struct {
	db *sqlx.DB
}

// NewPostgresEstudianteRepository crea una nueva instancia del repositorio.
func NewPostgresEstudianteRepository(db *sqlx.DB) academico.EstudianteRepository {
	return &PostgresEstudianteRepository{db: db}
}

// Create inserta un estudiante y devuelve la fila persistida.
func (r *PostgresEstudianteRepository) Create(ctx context.Context, e academico.Estudiante) (*academico.Estudiante, error) {
	query := `
		INSERT INTO estudiantes (ci, registro, nombre, apellido, email, facultad_id, created_at, updated_at)
		VALUES (:ci, :registro, :nombre, :apellido, :email, :facultad_id, NOW(), NOW())
		RETURNING *`

	rows, err := r.db.NamedQueryContext(ctx, query, e)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("ci", e.CI)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, academico.Errors().NewWithMessage(academico.ErrStorage, "insert no devolvio filas")
	}
	var created academico.Estudiante
	if err := rows.StructScan(&created); err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &created, nil
}

// Update actualiza un estudiante por su numero de registro.
func (r *PostgresEstudianteRepository) Update(ctx context.Context, e academico.Estudiante) (*academico.Estudiante, error) {
	query := `
		UPDATE estudiantes
		SET nombre = :nombre, apellido = :apellido, email = :email, facultad_id = :facultad_id, updated_at = NOW()
		WHERE registro = :registro
		RETURNING *`

	rows, err := r.db.NamedQueryContext(ctx, query, e)
	if err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", e.Registro)
	}
	var updated academico.Estudiante
	if err := rows.StructScan(&updated); err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &updated, nil
}

// Delete elimina un estudiante por su numero de registro.
func (r *PostgresEstudianteRepository) Delete(ctx context.Context, registro int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM estudiantes WHERE registro = $1`, registro)
	if err != nil {
		return academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	if rows == 0 {
		return academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", registro)
	}
	return nil
}

// FindByRegistro busca un estudiante por su numero de registro.
func (r *PostgresEstudianteRepository) FindByRegistro(ctx context.Context, registro int64) (*academico.Estudiante, error) {
	var e academico.Estudiante
	err := r.db.GetContext(ctx, &e, `SELECT * FROM estudiantes WHERE registro = $1`, registro)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, academico.Errors().New(academico.ErrEstudianteNotFound).WithDetail("registro", registro)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	return &e, nil
}

// List devuelve estudiantes paginados, ordenados por nombre.
func (r *PostgresEstudianteRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Estudiante], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM estudiantes`); err != nil {
		return kernel.Paginated[academico.Estudiante]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	items := []academico.Estudiante{}
	query := `SELECT * FROM estudiantes ORDER BY nombre ASC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[academico.Estudiante]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// PostgresMateriaRepository es la implementación en PostgreSQL de MateriaRepository.
type PostgresMateriaRepository struct {
	db *sqlx.DB
}

// NewPostgresMateriaRepository crea una nueva instancia del repositorio.
func NewPostgresMateriaRepository(db *sqlx.DB) academico.MateriaRepository {
	return &PostgresMateriaRepository{db: db}
}

// Create inserta una materia junto con sus prerequisitos en una transacción.
func (r *PostgresMateriaRepository) Create(ctx context.Context, m academico.Materia) (*academico.Materia, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO materias (nombre, sigla, horas_de_estudio, nivel, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, nombre, sigla, horas_de_estudio, nivel, created_at, updated_at`

	var created academico.Materia
	err = tx.GetContext(ctx, &created, query, m.Nombre, m.Sigla, m.HorasDeEstudio, m.Nivel)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, academico.Errors().New(academico.ErrDuplicado).WithDetail("sigla", m.Sigla)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	for _, prereqID := range m.Prerequisitos {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pre_requisitos (materia_id, prerequisito_id) VALUES ($1, $2)`,
			created.ID, prereqID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
				return nil, academico.Errors().New(academico.ErrMateriaNotFound).WithDetail("prerequisito_id", prereqID)
			}
			return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	created.Prerequisitos = m.Prerequisitos
	return &created, nil
}

// FindByID busca una materia por id, cargando sus prerequisitos.
func (r *PostgresMateriaRepository) FindByID(ctx context.Context, id int64) (*academico.Materia, error) {
	var m academico.Materia
	err := r.db.GetContext(ctx, &m, `SELECT * FROM materias WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, academico.Errors().New(academico.ErrMateriaNotFound).WithDetail("id", id)
		}
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	prereqs := []int64{}
	err = r.db.SelectContext(ctx, &prereqs,
		`SELECT prerequisito_id FROM pre_requisitos WHERE materia_id = $1 ORDER BY prerequisito_id`, id)
	if err != nil {
		return nil, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}
	m.Prerequisitos = prereqs
	return &m, nil
}

// List devuelve materias paginadas, ordenadas por nivel y sigla.
func (r *PostgresMateriaRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[academico.Materia], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM materias`); err != nil {
		return kernel.Paginated[academico.Materia]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	items := []academico.Materia{}
	query := `SELECT * FROM materias ORDER BY nivel ASC, sigla ASC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[academico.Materia]{}, academico.Errors().NewWithCause(academico.ErrStorage, err)
	}

	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}
