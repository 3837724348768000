package namespace

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	List(c echo.Context) error
	Create(c echo.Context) error
	Get(c echo.Context) error
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

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateRequest struct {
	Description *string `json:"description"`
}

// List returns every namespace the requester can read
func (h *handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Namespace.Handler.List")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	namespaces, err := h.service.List(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}
	if namespaces == nil {
		namespaces = []core.Namespace{}
	}

	return c.JSON(http.StatusOK, namespaces)
}

// Create makes a new namespace
func (h *handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Namespace.Handler.Create")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	var request createRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	created, err := h.service.Create(ctx, requester, request.Name, request.Description)
	if err != nil {
		if errors.Is(err, core.ErrorAlreadyExists{}) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": "namespace name is already taken"})
		}
		if errors.Is(err, core.ErrorInvalidRequest{}) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusCreated, created)
}

// Get returns a namespace by id or name, with its direct grant lists
func (h *handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Namespace.Handler.Get")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	detail, err := h.service.Get(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "namespace not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to view this namespace"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, detail)
}

// Update changes a namespace description
func (h *handler) Update(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Namespace.Handler.Update")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	var request updateRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	updated, err := h.service.Update(ctx, requester, c.Param("id"), request.Description)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "namespace not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to update this namespace"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes a namespace and cascades to its objects and grants
func (h *handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Namespace.Handler.Delete")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	err := h.service.Delete(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "namespace not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to delete this namespace"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
