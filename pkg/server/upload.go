package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
	"streamfs/pkg/objstore"
)

// putObject handles PUT /v1/object/:bucket/* requests. The request body is
// stored as the object content and the committed descriptor is returned.
func (g *Gateway) putObject(ctx echo.Context) error {
	bucket := ctx.Param("bucket")
	key := objectKey(ctx)
	log.Info().Str("bucket", bucket).Str("key", key).Msg("Object upload request")

	var opts []objstore.PutOption
	if desc := ctx.Request().Header.Get(models.HeaderDescription); desc != "" {
		opts = append(opts, objstore.WithDescription(desc))
	}
	if meta := metaHeaders(ctx.Request().Header); len(meta) > 0 {
		opts = append(opts, objstore.WithHeaders(meta))
	}

	info, err := g.store.Put(ctx.Request().Context(), bucket, key, ctx.Request().Body, opts...)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, info)
}

// metaHeaders collects caller metadata from the request headers, prefix
// stripped.
func metaHeaders(h http.Header) models.Header {
	meta := models.Header{}
	for k, values := range h {
		if !strings.HasPrefix(k, models.HeaderMetaPrefix) {
			continue
		}
		name := strings.TrimPrefix(k, models.HeaderMetaPrefix)
		for _, v := range values {
			meta.Add(name, v)
		}
	}
	return meta
}
