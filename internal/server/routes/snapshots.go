package routes

import (
	"net/http"

	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	"github.com/labstack/echo/v4"
)

// SaveSnapshotHandler stores the posted graph document as is. The optional
// name query parameter labels it in listings.
func SaveSnapshotHandler(c echo.Context) error {
	type saveSnapshotResponse struct {
		Message string `json:"message"`
		ID      string `json:"id"`
		Name    string `json:"name"`
	}

	doc := new(common.GraphResponse)
	if err := c.Bind(doc); err != nil {
		return badRequest(c, "Invalid snapshot document")
	}

	snapshots := c.(*middleware.AppContext).App.Snapshots
	name := c.QueryParam("name")
	id, err := snapshots.Save(c.Request().Context(), store.Snapshot{Name: name, Graph: *doc})
	if err != nil {
		return respondError(c, err)
	}
	if name == "" {
		name = id
	}
	return c.JSON(http.StatusCreated, saveSnapshotResponse{
		Message: "Snapshot saved",
		ID:      id,
		Name:    name,
	})
}

func ListSnapshotsHandler(c echo.Context) error {
	type listSnapshotsResponse struct {
		Snapshots []store.SnapshotInfo `json:"snapshots"`
	}

	snapshots := c.(*middleware.AppContext).App.Snapshots
	infos, err := snapshots.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, listSnapshotsResponse{Snapshots: infos})
}

// GetSnapshotHandler returns the stored document. It carries no query_id,
// so it cannot be expanded through /graph_view.
func GetSnapshotHandler(c echo.Context) error {
	snapshots := c.(*middleware.AppContext).App.Snapshots
	snap, err := snapshots.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Graph)
}
