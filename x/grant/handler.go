package grant

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Put(c echo.Context) error
	Revoke(c echo.Context) error
	GetEffective(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

func subjectFromPath(c echo.Context) (core.Scope, core.Subject, error) {
	scope, err := core.ParseScope(c.Param("scope"))
	if err != nil {
		return "", core.Subject{}, err
	}
	kind, err := core.ParseSubjectKind(c.Param("entity"))
	if err != nil {
		return "", core.Subject{}, err
	}
	return scope, core.Subject{Kind: kind, ID: c.Param("subject")}, nil
}

// Put stores a grant, replacing whatever flags the subject held before.
// POST and PATCH are the same operation on purpose.
func (h *handler) Put(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Grant.Handler.Put")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	scope, subject, err := subjectFromPath(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	var flags map[string]bool
	err = c.Bind(&flags)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	written, err := h.service.Put(ctx, requester, c.Param("id"), scope, subject, flags)
	if err != nil {
		if errors.Is(err, core.ErrorInvalidRequest{}) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
		}
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "namespace not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to manage grants on this namespace"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, written)
}

// Revoke deletes a grant
func (h *handler) Revoke(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Grant.Handler.Revoke")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	scope, subject, err := subjectFromPath(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	err = h.service.Revoke(ctx, requester, c.Param("id"), scope, subject)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "grant not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to manage grants on this namespace"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// GetEffective returns the subject's group-expanded effective flag map
func (h *handler) GetEffective(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Grant.Handler.GetEffective")
	defer span.End()

	requester, _ := c.Get(auth.RequesterIdCtxKey).(string)

	scope, subject, err := subjectFromPath(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": err.Error()})
	}

	effective, err := h.service.GetEffective(ctx, requester, c.Param("id"), scope, subject)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "namespace not found"})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "you are not authorized to inspect this subject"})
		}
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, effective)
}
