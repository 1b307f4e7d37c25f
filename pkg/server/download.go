package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
)

// getObject handles GET /v1/object/:bucket/* requests, streaming the object
// body chunk by chunk as it arrives from the stream.
func (g *Gateway) getObject(ctx echo.Context) error {
	bucket := ctx.Param("bucket")
	key := objectKey(ctx)
	log.Info().Str("bucket", bucket).Str("key", key).Msg("Object download request")

	obj, err := g.store.Get(ctx.Request().Context(), bucket, key)
	if err != nil {
		return writeError(ctx, err)
	}
	defer func() {
		if closeErr := obj.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close object reader")
		}
	}()

	writeObjectHeaders(ctx, obj.Info())
	ctx.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(ctx.Response().Writer, obj); err != nil {
		// The status line is already out; the connection just ends short
		// of the advertised length.
		log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("Object stream aborted")
	}
	return nil
}

// writeObjectHeaders mirrors the descriptor onto the response.
func writeObjectHeaders(ctx echo.Context, info *models.ObjectInfo) {
	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, "application/octet-stream")
	h.Set(echo.HeaderContentLength, strconv.FormatUint(info.Size, 10))
	h.Set(models.HeaderID, info.ID)
	h.Set(models.HeaderChunks, strconv.FormatUint(uint64(info.Chunks), 10))
	if info.Digest != "" {
		h.Set(models.HeaderDigest, info.Digest)
	}
	if info.Description != "" {
		h.Set(models.HeaderDescription, info.Description)
	}
	if !info.ModTime.IsZero() {
		h.Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	for k, values := range info.Headers {
		for _, v := range values {
			h.Add(models.HeaderMetaPrefix+k, v)
		}
	}
}
