package routes

import (
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/server/middleware"
	"github.com/soitgoes511/graph-network-visualizer/internal/server/util"

	"github.com/labstack/echo/v4"
)

const (
	logSubscriberBuffer = 64
	logKeepalive        = 15 * time.Second
)

// LogsHandler streams progress messages as server-sent "log" events until
// the client disconnects.
func LogsHandler(c echo.Context) error {
	hub := c.(*middleware.AppContext).App.Hub
	events, cancel := hub.Subscribe(logSubscriberBuffer)
	defer cancel()

	util.StartSSE(c)

	ticker := time.NewTicker(logKeepalive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := util.WriteSSEComment(c, "keepalive"); err != nil {
				return nil
			}
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := util.WriteSSEEvent(c, "log", e); err != nil {
				return nil
			}
		}
	}
}
