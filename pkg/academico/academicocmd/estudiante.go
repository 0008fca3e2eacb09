package academicocmd

import (
	"context"
	"encoding/json"

	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/kernel"
)

// estudianteData is the payload shared by the estudiante task types.
type estudianteData struct {
	CI         string `json:"ci,omitempty"`
	Registro   int64  `json:"registro,omitempty"`
	Nombre     string `json:"nombre,omitempty"`
	Apellido   string `json:"apellido,omitempty"`
	Email      string `json:"email,omitempty"`
	FacultadID *int64 `json:"facultad_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"pageSize,omitempty"`
}

// EstudianteResult is the outcome of a single-estudiante operation.
type EstudianteResult struct {
	Success    bool                  `json:"success"`
	Estudiante *academico.Estudiante `json:"estudiante,omitempty"`
}

// EstudianteListResult is the outcome of an estudiante listing.
type EstudianteListResult struct {
	Success     bool                   `json:"success"`
	Estudiantes []academico.Estudiante `json:"estudiantes"`
	Page        kernel.Page            `json:"pagination"`
}

func (f *Factory) getEstudiante(data json.RawMessage) (jobx.Command, error) {
	cmd := &getEstudianteCommand{repo: f.estudiantes}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type getEstudianteCommand struct {
	repo academico.EstudianteRepository
	data estudianteData
}

func (c *getEstudianteCommand) Execute(ctx context.Context) (any, error) {
	if c.data.Registro != 0 {
		estudiante, err := c.repo.FindByRegistro(ctx, c.data.Registro)
		if err != nil {
			return nil, err
		}
		return EstudianteResult{Success: true, Estudiante: estudiante}, nil
	}

	page, err := c.repo.List(ctx, listOptions(c.data.Page, c.data.PageSize))
	if err != nil {
		return nil, err
	}
	return EstudianteListResult{Success: true, Estudiantes: page.Items, Page: page.Page}, nil
}

func (f *Factory) createEstudiante(data json.RawMessage) (jobx.Command, error) {
	cmd := &createEstudianteCommand{repo: f.estudiantes}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type createEstudianteCommand struct {
	repo academico.EstudianteRepository
	data estudianteData
}

// Claim guards the documento de identidad: two creates for the same ci must
// not both reach the database.
func (c *createEstudianteCommand) Claim() (jobx.Claim, bool) {
	if c.data.CI == "" {
		return jobx.Claim{}, false
	}
	return jobx.Claim{Namespace: NamespaceEstudiantes, Key: c.data.CI}, true
}

func (c *createEstudianteCommand) Execute(ctx context.Context) (any, error) {
	if c.data.CI == "" || c.data.Registro == 0 || c.data.Nombre == "" {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos,
			"ci, registro y nombre son obligatorios")
	}

	created, err := c.repo.Create(ctx, academico.Estudiante{
		CI:         c.data.CI,
		Registro:   c.data.Registro,
		Nombre:     c.data.Nombre,
		Apellido:   c.data.Apellido,
		Email:      c.data.Email,
		FacultadID: c.data.FacultadID,
	})
	if err != nil {
		return nil, err
	}
	return EstudianteResult{Success: true, Estudiante: created}, nil
}

func (f *Factory) updateEstudiante(data json.RawMessage) (jobx.Command, error) {
	cmd := &updateEstudianteCommand{repo: f.estudiantes, factory: f}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type updateEstudianteCommand struct {
	repo    academico.EstudianteRepository
	factory *Factory
	data    estudianteData
}

func (c *updateEstudianteCommand) Execute(ctx context.Context) (any, error) {
	if c.data.Registro == 0 {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos, "registro es obligatorio")
	}

	updated, err := c.repo.Update(ctx, academico.Estudiante{
		Registro:   c.data.Registro,
		Nombre:     c.data.Nombre,
		Apellido:   c.data.Apellido,
		Email:      c.data.Email,
		FacultadID: c.data.FacultadID,
	})
	if err != nil {
		return nil, err
	}

	if err := c.factory.refreshSnapshot(ctx, NamespaceEstudiantes, updated.CI, updated); err != nil {
		return nil, err
	}
	return EstudianteResult{Success: true, Estudiante: updated}, nil
}

func (f *Factory) deleteEstudiante(data json.RawMessage) (jobx.Command, error) {
	cmd := &deleteEstudianteCommand{repo: f.estudiantes, factory: f}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type deleteEstudianteCommand struct {
	repo    academico.EstudianteRepository
	factory *Factory
	data    estudianteData
}

func (c *deleteEstudianteCommand) Execute(ctx context.Context) (any, error) {
	if c.data.Registro == 0 {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos, "registro es obligatorio")
	}

	estudiante, err := c.repo.FindByRegistro(ctx, c.data.Registro)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Delete(ctx, c.data.Registro); err != nil {
		return nil, err
	}

	if err := c.factory.releaseKey(ctx, NamespaceEstudiantes, estudiante.CI); err != nil {
		return nil, err
	}
	return DeleteResult{Success: true, Message: "Estudiante eliminado"}, nil
}
