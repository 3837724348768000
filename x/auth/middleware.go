// Package auth identifies the requester behind each request. Authentication
// itself is owned by the surrounding gateway; identity arrives via
// propagation headers.
package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/slices"

	"github.com/namespaced/namespaced/core"
)

var tracer = otel.Tracer("auth")

type Principal int

const (
	ISADMIN = iota
	ISKNOWN
)

// Service provides the identity middlewares.
type Service interface {
	ReceiveGatewayAuthPropagation(next echo.HandlerFunc) echo.HandlerFunc
	Restrict(principal Principal) echo.MiddlewareFunc
}

type service struct {
	config core.Config
}

// NewService creates a new auth service
func NewService(config core.Config) Service {
	return &service{config: config}
}

// ReceiveGatewayAuthPropagation picks the requester identity off the
// gateway headers and stashes it on the request context.
func (s *service) ReceiveGatewayAuthPropagation(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.ReceiveGatewayAuthPropagation")
		defer span.End()

		requester := c.Request().Header.Get(RequesterIdHeader)
		if requester != "" {
			c.Set(RequesterIdCtxKey, requester)
			span.SetAttributes(attribute.String("RequesterId", requester))

			if slices.Contains(s.config.Admins, requester) {
				c.Set(RequesterIsAdminCtxKey, true)
				span.SetAttributes(attribute.Bool("RequesterIsAdmin", true))
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Restrict rejects requests whose requester does not satisfy the principal.
func (s *service) Restrict(principal Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.Restrict")
			defer span.End()

			requester, _ := c.Get(RequesterIdCtxKey).(string)
			isAdmin, _ := c.Get(RequesterIsAdminCtxKey).(bool)

			switch principal {
			case ISADMIN:
				if !isAdmin {
					return c.JSON(http.StatusForbidden, echo.Map{
						"error":  "you are not authorized to perform this action",
						"detail": "you are not admin",
					})
				}

			case ISKNOWN:
				if requester == "" {
					return c.JSON(http.StatusForbidden, echo.Map{
						"error":  "you are not authorized to perform this action",
						"detail": "you are not known",
					})
				}
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
