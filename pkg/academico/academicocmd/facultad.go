package academicocmd

import (
	"context"
	"encoding/json"

	"github.com/ucbscz/registro/pkg/academico"
	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/kernel"
)

// facultadData is the payload shared by the facultad task types.
type facultadData struct {
	ID       int64  `json:"id,omitempty"`
	Nombre   string `json:"nombre,omitempty"`
	Sigla    string `json:"sigla,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// FacultadResult is the outcome of a single-facultad operation.
type FacultadResult struct {
	Success  bool                `json:"success"`
	Facultad *academico.Facultad `json:"facultad,omitempty"`
}

// FacultadListResult is the outcome of a facultad listing.
type FacultadListResult struct {
	Success    bool                 `json:"success"`
	Facultades []academico.Facultad `json:"facultades"`
	Page       kernel.Page          `json:"pagination"`
}

// DeleteResult is the outcome of any delete task.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (f *Factory) getFacultad(data json.RawMessage) (jobx.Command, error) {
	cmd := &getFacultadCommand{repo: f.facultades}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type getFacultadCommand struct {
	repo academico.FacultadRepository
	data facultadData
}

func (c *getFacultadCommand) Execute(ctx context.Context) (any, error) {
	if c.data.ID != 0 {
		facultad, err := c.repo.FindByID(ctx, c.data.ID)
		if err != nil {
			return nil, err
		}
		return FacultadResult{Success: true, Facultad: facultad}, nil
	}

	page, err := c.repo.List(ctx, listOptions(c.data.Page, c.data.PageSize))
	if err != nil {
		return nil, err
	}
	return FacultadListResult{Success: true, Facultades: page.Items, Page: page.Page}, nil
}

func (f *Factory) createFacultad(data json.RawMessage) (jobx.Command, error) {
	cmd := &createFacultadCommand{repo: f.facultades}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type createFacultadCommand struct {
	repo academico.FacultadRepository
	data facultadData
}

func (c *createFacultadCommand) Claim() (jobx.Claim, bool) {
	if c.data.Sigla == "" {
		return jobx.Claim{}, false
	}
	return jobx.Claim{Namespace: NamespaceFacultades, Key: c.data.Sigla}, true
}

func (c *createFacultadCommand) Execute(ctx context.Context) (any, error) {
	if c.data.Nombre == "" || c.data.Sigla == "" {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos,
			"nombre y sigla son obligatorios")
	}

	created, err := c.repo.Create(ctx, academico.Facultad{
		Nombre: c.data.Nombre,
		Sigla:  c.data.Sigla,
	})
	if err != nil {
		return nil, err
	}
	return FacultadResult{Success: true, Facultad: created}, nil
}

func (f *Factory) updateFacultad(data json.RawMessage) (jobx.Command, error) {
	cmd := &updateFacultadCommand{repo: f.facultades, factory: f}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type updateFacultadCommand struct {
	repo    academico.FacultadRepository
	factory *Factory
	data    facultadData
}

func (c *updateFacultadCommand) Execute(ctx context.Context) (any, error) {
	if c.data.ID == 0 {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos, "id es obligatorio")
	}

	updated, err := c.repo.Update(ctx, academico.Facultad{
		ID:     c.data.ID,
		Nombre: c.data.Nombre,
		Sigla:  c.data.Sigla,
	})
	if err != nil {
		return nil, err
	}

	if err := c.factory.refreshSnapshot(ctx, NamespaceFacultades, updated.Sigla, updated); err != nil {
		return nil, err
	}
	return FacultadResult{Success: true, Facultad: updated}, nil
}

func (f *Factory) deleteFacultad(data json.RawMessage) (jobx.Command, error) {
	cmd := &deleteFacultadCommand{repo: f.facultades, factory: f}
	if err := decode(data, &cmd.data); err != nil {
		return nil, err
	}
	return cmd, nil
}

type deleteFacultadCommand struct {
	repo    academico.FacultadRepository
	factory *Factory
	data    facultadData
}

func (c *deleteFacultadCommand) Execute(ctx context.Context) (any, error) {
	if c.data.ID == 0 {
		return nil, academico.Errors().NewWithMessage(academico.ErrDatosInvalidos, "id es obligatorio")
	}

	facultad, err := c.repo.FindByID(ctx, c.data.ID)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Delete(ctx, c.data.ID); err != nil {
		return nil, err
	}

	if err := c.factory.releaseKey(ctx, NamespaceFacultades, facultad.Sigla); err != nil {
		return nil, err
	}
	return DeleteResult{Success: true, Message: "Facultad eliminada"}, nil
}

func listOptions(page, size int) kernel.PaginationOptions {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	return kernel.PaginationOptions{Page: page, PageSize: size}
}
