package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/herdline/herdline/internal/domain"
)

var tracer = otel.Tracer("middleware")

// IdentifyRequester copies the opaque requester id header into the request
// context. The id is not authenticated; it only attributes writes.
func IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Middleware.IdentifyRequester")
		defer span.End()

		requesterId := c.Request().Header.Get(domain.RequesterIdHeader)
		if requesterId != "" {
			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, requesterId)
			span.SetAttributes(attribute.String("RequesterId", requesterId))
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
