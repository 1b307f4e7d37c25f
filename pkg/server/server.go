// Package server exposes the object store over HTTP.
//
// The gateway is a thin translation layer: routes map one-to-one onto store
// operations, store errors map onto statuses, and object bodies stream
// through without buffering. It holds no state of its own beyond the store
// handle.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"streamfs/pkg/log"
	"streamfs/pkg/objstore"
)

const shutdownTimeout = 10 * time.Second

// Gateway serves one object store over HTTP.
type Gateway struct {
	store      *objstore.Store
	echo       *echo.Echo
	version    string
	started    time.Time
	routesOnce sync.Once
}

// NewGateway creates a gateway over store.
func NewGateway(store *objstore.Store, version string) *Gateway {
	return &Gateway{
		store:   store,
		echo:    echo.New(),
		version: version,
		started: time.Now(),
	}
}

// Handler returns the gateway's HTTP handler, for mounting into a caller's
// own server or tests.
func (g *Gateway) Handler() http.Handler {
	g.routesOnce.Do(g.setupRoutes)
	return g.echo
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (g *Gateway) Start(addr string) error {
	g.routesOnce.Do(g.setupRoutes)

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", g.version).
			Msg("Starting streamfs gateway")

		if err := g.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return g.Shutdown()
}

// Shutdown stops the gateway, waiting out in-flight requests.
func (g *Gateway) Shutdown() error {
	log.Info().Msg("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := g.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Gateway shutdown failed")
		return err
	}

	log.Info().Msg("Gateway stopped")
	return nil
}

func (g *Gateway) setupRoutes() {
	g.echo.HideBanner = true
	g.echo.HidePort = true

	g.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	g.echo.Use(middleware.Recover())

	g.echo.PUT("/v1/bucket/:bucket", g.createBucket)
	g.echo.GET("/v1/bucket/:bucket", g.bucketStatus)
	g.echo.DELETE("/v1/bucket/:bucket", g.deleteBucket)
	g.echo.GET("/v1/bucket/:bucket/objects", g.listObjects)
	g.echo.PUT("/v1/object/:bucket/*", g.putObject)
	g.echo.GET("/v1/object/:bucket/*", g.getObject)
	g.echo.DELETE("/v1/object/:bucket/*", g.deleteObject)
	g.echo.GET("/v1/info/:bucket/*", g.objectInfo)
	g.echo.GET("/v1/node/info", g.nodeInfo)
}

// objectKey returns the catch-all segment of the request path as the object
// key. The router hands the segment over still escaped whenever the raw URL
// needed escaping, so unescape; a segment that is not valid percent-encoding
// is taken verbatim.
func objectKey(ctx echo.Context) string {
	raw := ctx.Param("*")
	key, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return key
}
