package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/log"
	"streamfs/pkg/objstore"
	"streamfs/pkg/stream"
)

// writeError maps store errors onto HTTP statuses. Not-found responses keep
// the store's message so callers can see which key and bucket missed;
// unexpected errors are logged server-side and masked.
func writeError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, objstore.ErrObjectNotFound),
		errors.Is(err, objstore.ErrBucketNotFound):
		return ctx.JSON(http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, objstore.ErrInvalidBucketName),
		errors.Is(err, objstore.ErrBucketRequired),
		errors.Is(err, objstore.ErrNameRequired):
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, stream.ErrStreamExists):
		return ctx.JSON(http.StatusConflict, map[string]string{
			"error": "bucket already exists with a different configuration",
		})
	case errors.Is(err, stream.ErrStreamFull):
		return ctx.JSON(http.StatusInsufficientStorage, map[string]string{
			"error": "bucket is full",
		})
	default:
		log.Error().Err(err).Str("path", ctx.Request().URL.Path).Msg("Request failed")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}
