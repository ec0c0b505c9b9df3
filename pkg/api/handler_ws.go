package api

import (
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/candidflow/interviewer/pkg/orchestrator"
	"github.com/candidflow/interviewer/pkg/session"
)

// wsHandler handles GET /api/v1/ws/interviews/:id. It upgrades the
// connection, constructs an Orchestrator bound to this one interview,
// and runs a Session's read loop until disconnect — directly grounded
// on the teacher's wsHandler, which delegated to a shared
// ConnectionManager instead of constructing a per-connection driver.
func (s *Server) wsHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "interview id is required")
	}

	opts := &websocket.AcceptOptions{}
	if len(s.cfg.Server.AllowedWSOrigins) > 0 {
		opts.OriginPatterns = s.cfg.Server.AllowedWSOrigins
	} else {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		return err
	}

	orch := orchestrator.New(s.orchDeps, id)
	sess := session.New(id, conn, orch)
	sess.Run(c.Request().Context())
	return nil
}
