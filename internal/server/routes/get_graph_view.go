package routes

import (
	"net/http"

	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/internal/server/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	"github.com/labstack/echo/v4"
)

// GraphViewHandler re-truncates a cached query. Without limits the
// query's last served limits are reused; a single limit is completed with
// the default for the other one.
func GraphViewHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	queryID := c.QueryParam("query_id")
	if queryID == "" {
		return badRequest(c, "query_id is required")
	}
	limits, err := limitsFromQuery(c, app.Graph.ViewOptions())
	if err != nil {
		return respondError(c, err)
	}

	resp, err := app.Graph.View(queryID, limits)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// limitsFromQuery returns nil when neither limit is given.
func limitsFromQuery(c echo.Context, opts view.Options) (*view.Limits, error) {
	nodes, hasNodes, err := util.ParseOptionalInt("node_limit", c.QueryParam("node_limit"))
	if err != nil {
		return nil, err
	}
	links, hasLinks, err := util.ParseOptionalInt("link_limit", c.QueryParam("link_limit"))
	if err != nil {
		return nil, err
	}
	if !hasNodes && !hasLinks {
		return nil, nil
	}
	l := opts.DefaultLimits()
	if hasNodes {
		l.Nodes = nodes
	}
	if hasLinks {
		l.Links = links
	}
	return &l, nil
}
