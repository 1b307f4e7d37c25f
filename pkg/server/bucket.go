package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

// createBucket handles PUT /v1/bucket/:bucket requests. The optional JSON
// body tunes retention, size cap, storage class and compression.
func (g *Gateway) createBucket(ctx echo.Context) error {
	name := ctx.Param("bucket")

	var req models.CreateBucketRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "malformed request body",
		})
	}

	var ttl time.Duration
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid ttl: " + req.TTL,
			})
		}
		ttl = parsed
	}

	storage := stream.FileStorage
	if req.Memory {
		storage = stream.MemoryStorage
	}

	err := g.store.CreateBucket(ctx.Request().Context(), models.BucketConfig{
		Bucket:      name,
		Description: req.Description,
		TTL:         ttl,
		MaxBytes:    req.MaxBytes,
		Storage:     storage,
		Replicas:    req.Replicas,
		Compression: req.Compression,
	})
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{
		"message": "Bucket created",
		"bucket":  name,
	})
}

// bucketStatus handles GET /v1/bucket/:bucket requests.
func (g *Gateway) bucketStatus(ctx echo.Context) error {
	status, err := g.store.Status(ctx.Request().Context(), ctx.Param("bucket"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, status)
}

// deleteBucket handles DELETE /v1/bucket/:bucket requests. Every object in
// the bucket goes with it.
func (g *Gateway) deleteBucket(ctx echo.Context) error {
	name := ctx.Param("bucket")
	if err := g.store.DeleteBucket(ctx.Request().Context(), name); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Bucket deleted",
		"bucket":  name,
	})
}

// listObjects handles GET /v1/bucket/:bucket/objects requests.
func (g *Gateway) listObjects(ctx echo.Context) error {
	name := ctx.Param("bucket")
	objects, err := g.store.List(ctx.Request().Context(), name)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.ObjectListResponse{
		Bucket:  name,
		Objects: objects,
	})
}
