package handler

import (
	"context"
	"io"
	"iter"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/deppfellow/testtable-service/internal/model"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
	"github.com/deppfellow/testtable-service/internal/validation"
)

// TestTableService is what the HTTP layer needs from the service layer.
type TestTableService interface {
	FindAll(ctx context.Context) iter.Seq2[*testtable.Response, error]
	FindByID(ctx context.Context, id uuid.UUID) (*testtable.Response, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, f testtable.Fields) (*testtable.Response, error)
	Update(ctx context.Context, id uuid.UUID, f testtable.Fields) (*testtable.Response, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TestTableHandler struct {
	Handler
	service TestTableService
}

func NewTestTableHandler(h Handler, service TestTableService) *TestTableHandler {
	return &TestTableHandler{Handler: h, service: service}
}

// ListTestTablesRequest takes no input.
type ListTestTablesRequest struct{}

func (r *ListTestTablesRequest) Validate() error { return nil }

// TestTableIDRequest carries the :id path parameter.
type TestTableIDRequest struct {
	ID uuid.UUID
}

func (r *TestTableIDRequest) Decode(c echo.Context) error {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (r *TestTableIDRequest) Validate() error { return nil }

type CreateTestTableRequest struct {
	Payload *testtable.Payload
}

func (r *CreateTestTableRequest) Decode(c echo.Context) error {
	p, err := decodeBody(c)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}

func (r *CreateTestTableRequest) Validate() error {
	return validation.Struct(r.Payload)
}

type UpdateTestTableRequest struct {
	ID      uuid.UUID
	Payload *testtable.Payload
}

// Decode checks the id before reading the body.
func (r *UpdateTestTableRequest) Decode(c echo.Context) error {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	p, err := decodeBody(c)
	if err != nil {
		return err
	}

	r.ID, r.Payload = id, p
	return nil
}

func (r *UpdateTestTableRequest) Validate() error {
	return validation.Struct(r.Payload)
}

// decodeBody returns a *testtable.DecodeError for bodies that are not a
// TestTable payload; the global error handler turns it into a 400.
func decodeBody(c echo.Context) (*testtable.Payload, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	return testtable.DecodePayload(body)
}

// List returns every record, or an empty array.
func (h *TestTableHandler) List(c echo.Context, _ *ListTestTablesRequest) ([]*testtable.Response, error) {
	records := []*testtable.Response{}
	for r, err := range h.service.FindAll(c.Request().Context()) {
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (h *TestTableHandler) Get(c echo.Context, req *TestTableIDRequest) (*testtable.Response, error) {
	return h.service.FindByID(c.Request().Context(), req.ID)
}

// Head answers 200 when the record exists and 404 when it does not.
func (h *TestTableHandler) Head(c echo.Context, req *TestTableIDRequest) error {
	exists, err := h.service.Exists(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	if !exists {
		return &model.NotFoundError{Resource: testtable.Resource, ID: req.ID}
	}
	return nil
}

func (h *TestTableHandler) Create(c echo.Context, req *CreateTestTableRequest) (*testtable.Response, error) {
	return h.service.Create(c.Request().Context(), req.Payload.Fields())
}

func (h *TestTableHandler) Update(c echo.Context, req *UpdateTestTableRequest) (*testtable.Response, error) {
	return h.service.Update(c.Request().Context(), req.ID, req.Payload.Fields())
}

func (h *TestTableHandler) Delete(c echo.Context, req *TestTableIDRequest) error {
	return h.service.Delete(c.Request().Context(), req.ID)
}
