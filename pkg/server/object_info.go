package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// objectInfo handles GET /v1/info/:bucket/* requests, returning the current
// descriptor without touching chunk data.
func (g *Gateway) objectInfo(ctx echo.Context) error {
	info, err := g.store.GetInfo(ctx.Request().Context(), ctx.Param("bucket"), objectKey(ctx))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, info)
}
