package academicocmd

import (
	"context"
	"encoding/json"

	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/kernel"
)

// materiaData is the payload shared by the materia task types.
type materiaData struct {
	ID             int64   `json:"id,omitempty"`
	Nombre         string  `json:"nombre,omitempty"`
	Sigla          string  `json:"sigla,omitempty"`
	HorasDeEstudio int     `json:"horasDeEstudio,omitempty"`
	Nivel          int     `json:"nivel,omitempty"`
	Prerequisitos  []int64 `json:"prerequisitos,omitempty"`
	Page           int     `json:"page,omitempty"`
	PageSize       int     `json:"pageSize,omitempty"`
}

// MateriaResult is the outcome of a single-materia operation.
type MateriaResult struct {
	Success bool               `json:"success"`
	Materia *academico.Materia `json:"materia,omitempty"`
}

// MateriaListResult is the outcome of a materia listing.
type MateriaListResult struct {
	Success  bool                `json:"success"`
	Materias []academico.Materia `json:"materias"`
	Page     kernel.Page         `json:"pagination"`
}

func (f *Factory) getMateria(data json.RawMessage) (jobx.Command, error) {
	cmd := &getMateriaCommand{repo: f.materias}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type getMateriaCommand struct {
	repo academico.MateriaRepository
	data materiaData
}

func (c *getMateriaCommand) Execute(ctx context.Context) (any, error) {
	if c.data.ID != 0 {
		materia, err := c.repo.FindByID(ctx, c.data.ID)
		if err != nil {
			return nil, err
		}
		return MateriaResult{Success: true, Materia: materia}, nil
	}

	page, err := c.repo.List(ctx, listOptions(c.data.Page, c.data.PageSize))
	if err != nil {
		return nil, err
	}
	return MateriaListResult{Success: true, Materias: page.Items, Page: page.Page}, nil
}

func (f *Factory) createMateria(data json.RawMessage) (jobx.Command, error) {
	cmd := &createMateriaCommand{repo: f.materias}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type createMateriaCommand struct {
	repo academico.MateriaRepository
	data materiaData
}

func (c *createMateriaCommand) Claim() (jobx.Claim, bool) {
	if c.data.Sigla == "" {
		return jobx.Claim{}, false
	}
	return jobx.Claim{Namespace: NamespaceMaterias, Key: c.data.Sigla}, true
}

func (c *createMateriaCommand) Execute(ctx context.Context) (any, error) {
	if c.data.Nombre == "" || c.data.Sigla == "" {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos,
			"nombre y sigla son obligatorios")
	}
	for _, prereqID := range c.data.Prerequisitos {
		if prereqID <= 0 {
			return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos,
				"prerequisito invalido")
		}
		if c.data.ID != 0 && prereqID == c.data.ID {
			return nil, academico.Errors().New(academico.ErrPrerequisito)
		}
	}

	created, err := c.repo.Create(ctx, academico.Materia{
		Nombre:         c.data.Nombre,
		Sigla:          c.data.Sigla,
		HorasDeEstudio: c.data.HorasDeEstudio,
		Nivel:          c.data.Nivel,
		Prerequisitos:  c.data.Prerequisitos,
	})
	if err != nil {
		return nil, err
	}
	return MateriaResult{Success: true, Materia: created}, nil
}
