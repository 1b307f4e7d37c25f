package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/log"
)

// deleteObject handles DELETE /v1/object/:bucket/* requests.
func (g *Gateway) deleteObject(ctx echo.Context) error {
	bucket := ctx.Param("bucket")
	key := objectKey(ctx)
	log.Info().Str("bucket", bucket).Str("key", key).Msg("Object delete request")

	if err := g.store.Delete(ctx.Request().Context(), bucket, key); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Object deleted",
		"bucket":  bucket,
		"key":     key,
	})
}
