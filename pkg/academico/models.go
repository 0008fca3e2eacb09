package academico

import "time"

// Facultad is an academic faculty.
type Facultad struct {
	ID        int64     `json:"id" db:"id"`
	Nombre    string    `json:"nombre" db:"nombre"`
	Sigla     string    `json:"sigla" db:"sigla"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Estudiante is a student. CI (documento de identidad) is the business key
// guarded by the uniqueness cache; Registro is the institutional number used
// for lookups.
type Estudiante struct {
	ID         int64     `json:"id" db:"id"`
	CI         string    `json:"ci" db:"ci"`
	Registro   int64     `json:"registro" db:"registro"`
	Nombre     string    `json:"nombre" db:"nombre"`
	Apellido   string    `json:"apellido" db:"apellido"`
	Email      string    `json:"email,omitempty" db:"email"`
	FacultadID *int64    `json:"facultad_id,omitempty" db:"facultad_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Materia is a course subject. Nivel is the semester it belongs to.
type Materia struct {
	ID             int64     `json:"id" db:"id"`
	Nombre         string    `json:"nombre" db:"nombre"`
	Sigla          string    `json:"sigla" db:"sigla"`
	HorasDeEstudio int       `json:"horas_de_estudio" db:"horas_de_estudio"`
	Nivel          int       `json:"nivel" db:"nivel"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// Prerequisitos holds the ids of the materias required before this one.
	// Loaded on reads, persisted on create.
	Prerequisitos []int64 `json:"prerequisitos,omitempty" db:"-"`
}
