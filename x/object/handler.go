package object

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	Get(c echo.Context) error
	List(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

type documentRequest struct {
	Document json.RawMessage `json:"document"`
}

func mapError(c echo.Context, err error) error {
	if errors.Is(err, core.ErrorNotFound{}) {
		return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "not found"})
	}
	if errors.Is(err, core.ErrorPermissionDenied{}) {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to access objects in this namespace"})
	}
	if errors.Is(err, core.ErrorInvalidRequest{}) {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
}

// Create stores a new object in the namespace
func (h *handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Object.Handler.Create")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	var request documentRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	created, err := h.service.Create(ctx, requester, c.Param("id"), string(request.Document))
	if err != nil {
		span.RecordError(err)
		return mapError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// Get returns one object
func (h *handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Object.Handler.Get")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	object, err := h.service.Get(ctx, requester, c.Param("id"), c.Param("object"))
	if err != nil {
		span.RecordError(err)
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, object)
}

// List returns the namespace's objects
func (h *handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Object.Handler.List")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	objects, err := h.service.List(ctx, requester, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		return mapError(c, err)
	}
	if objects == nil {
		objects = []core.NamespacedObject{}
	}

	return c.JSON(http.StatusOK, objects)
}

// Update replaces an object's document
func (h *handler) Update(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Object.Handler.Update")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	var request documentRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	updated, err := h.service.Update(ctx, requester, c.Param("id"), c.Param("object"), string(request.Document))
	if err != nil {
		span.RecordError(err)
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes an object
func (h *handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Object.Handler.Delete")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	err := h.service.Delete(ctx, requester, c.Param("id"), c.Param("object"))
	if err != nil {
		span.RecordError(err)
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
