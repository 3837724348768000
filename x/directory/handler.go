package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/namespaced/namespaced/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Get(c echo.Context) error
	Upsert(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

type upsertRequest struct {
	Members []string `json:"members"`
}

// Get returns a group and its member list
func (h *handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Directory.Handler.Get")
	defer span.End()

	group, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "group not found"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": group})
}

// Upsert replaces a group's member list
func (h *handler) Upsert(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Directory.Handler.Upsert")
	defer span.End()

	var request upsertRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	group, err := h.service.Upsert(ctx, core.GroupRecord{
		ID:      c.Param("id"),
		Members: request.Members,
	})
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": group})
}

// Delete removes a group
func (h *handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Directory.Handler.Delete")
	defer span.End()

	err := h.service.Delete(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "group not found"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
