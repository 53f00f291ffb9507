package stub

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type ctxKey string

const requesterCtxKey ctxKey = "requester"

// identify authenticates an optional bearer token. Requests without one pass through
// anonymously; a token that fails validation is rejected.
func (h *Handler) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Stub.Middleware.Identify")
		defer span.End()

		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return next(c)
		}

		authType, token, found := strings.Cut(header, " ")
		if !found || authType != "Bearer" {
			err := errors.New("only Bearer is acceptable")
			span.RecordError(err)
			return unauthorized(c, err)
		}

		result, err := h.auth.AuthJwt(ctx, token)
		if err != nil {
			span.RecordError(errors.Wrap(err, "identify: AuthJwt failed"))
			return unauthorized(c, err)
		}

		span.SetAttributes(attribute.String("requester", result.CCID))
		ctx = context.WithValue(ctx, requesterCtxKey, result.CCID)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requesterFrom(ctx context.Context) (string, bool) {
	ccid, ok := ctx.Value(requesterCtxKey).(string)
	return ccid, ok
}
