package routes

import (
	"net/http"

	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func ShortestPathHandler(c echo.Context) error {
	type shortestPathResponse struct {
		QueryID string   `json:"query_id"`
		Source  string   `json:"source"`
		Target  string   `json:"target"`
		Path    []string `json:"path"`
	}

	app := c.(*middleware.AppContext).App
	queryID, source, target := c.QueryParam("query_id"), c.QueryParam("source"), c.QueryParam("target")
	if queryID == "" || source == "" || target == "" {
		return badRequest(c, "query_id, source and target are required")
	}
	limits, err := limitsFromQuery(c, app.Graph.ViewOptions())
	if err != nil {
		return respondError(c, err)
	}

	path, err := app.Graph.ShortestPath(queryID, source, target, limits)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, shortestPathResponse{
		QueryID: queryID,
		Source:  source,
		Target:  target,
		Path:    path,
	})
}
