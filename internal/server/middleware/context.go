package middleware

import (
	"github.com/soitgoes511/graph-network-visualizer/internal/metrics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/graph"
	"github.com/soitgoes511/graph-network-visualizer/pkg/progress"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	"github.com/labstack/echo/v4"
)

type App struct {
	Graph     *graph.GraphClient
	Snapshots store.SnapshotStore
	Hub       *progress.Hub
	Metrics   *metrics.Metrics
	APIKey    string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
