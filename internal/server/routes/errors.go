package routes

import (
	"errors"
	"net/http"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	codeInvalidInput     = "invalid_input"
	codeQueryNotFound    = "query_not_found"
	codeSnapshotNotFound = "snapshot_not_found"
	codeInternal         = "internal"
)

// respondError maps pipeline errors onto status codes. Only invalid input
// and missing queries or snapshots are caller errors.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeInvalidInput})
	case errors.Is(err, common.ErrQueryNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{
			Error: "query not found or expired, run /process again",
			Code:  codeQueryNotFound,
		})
	case errors.Is(err, store.ErrSnapshotNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: codeSnapshotNotFound})
	default:
		logger.Error("[Server] Request failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error", Code: codeInternal})
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message, Code: codeInvalidInput})
}
