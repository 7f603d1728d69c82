package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleSession(c echo.Context) error {
	if err := c.JSON(http.StatusOK, s.session.Snapshot()); err != nil {
		return fmt.Errorf("failed to write session response: %w", err)
	}
	return nil
}
