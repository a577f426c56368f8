// Package jobs exposes the task/offer lifecycle over HTTP. All state
// transitions go through the lifecycle engine; handlers only authenticate,
// authorize and translate errors.
package jobs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

var engine *lifecycle.Engine

// Init wires the handlers to a lifecycle engine. Must be called before the
// routes are served.
func Init(e *lifecycle.Engine) {
	engine = e
}

// lifecycleError maps engine sentinels to HTTP responses with messages
// specific enough that the app can tell "wrong QR" from "job not active".
func lifecycleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, lifecycle.ErrTaskNotOpen):
		return c.JSON(http.StatusConflict, echo.Map{"error": "task is no longer open for offers"})
	case errors.Is(err, lifecycle.ErrAlreadyAssigned):
		return c.JSON(http.StatusConflict, echo.Map{"error": "another offer was already accepted for this task"})
	case errors.Is(err, lifecycle.ErrTokenMismatch):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong QR code"})
	case errors.Is(err, lifecycle.ErrPrecursorMissing):
		return c.JSON(http.StatusConflict, echo.Map{"error": "check-in is required before check-out"})
	case errors.Is(err, lifecycle.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "job is not active"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "backend call failed"})
	}
}

func requireUser(c echo.Context) (string, bool) {
	userID, ok := c.Get("user_id").(string)
	return userID, ok && userID != ""
}
