package server

import (
	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(app.Metrics.Handler()))

	api := e.Group("", middleware.AuthMiddleware)

	// Query routes
	api.POST("/process", routes.ProcessHandler)
	api.GET("/graph_view", routes.GraphViewHandler)
	api.GET("/shortest_path", routes.ShortestPathHandler)

	// Snapshot routes
	api.GET("/snapshots", routes.ListSnapshotsHandler)
	api.POST("/snapshots", routes.SaveSnapshotHandler)
	api.GET("/snapshots/:id", routes.GetSnapshotHandler)

	// Progress stream
	api.GET("/logs", routes.LogsHandler)
}
