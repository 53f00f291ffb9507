package stub

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/concrnt-loadtest"
)

func respond[T any](c echo.Context, status int, content T) error {
	return c.JSON(status, concrnt.Response[T]{Status: "ok", Content: content})
}

func fail(c echo.Context, status int, err error) error {
	return c.JSON(status, concrnt.Response[any]{Status: "error", Error: err.Error()})
}

func badRequest(c echo.Context, err error) error   { return fail(c, http.StatusBadRequest, err) }
func unauthorized(c echo.Context, err error) error { return fail(c, http.StatusUnauthorized, err) }
func forbidden(c echo.Context, err error) error    { return fail(c, http.StatusForbidden, err) }
func notFound(c echo.Context, err error) error     { return fail(c, http.StatusNotFound, err) }
