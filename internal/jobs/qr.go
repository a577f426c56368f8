package jobs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
	"github.com/gelsin-dev/gelsin/internal/messaging"
)

type QRRequest struct {
	QRToken string `json:"qr_token" validate:"required"`
}

func bindQR(c echo.Context) (string, *QRRequest, error) {
	taskID := c.Param("id")
	if taskID == "" {
		return "", nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}
	req := new(QRRequest)
	if err := c.Bind(req); err != nil {
		return "", nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return "", nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_token is required"})
	}
	return taskID, req, nil
}

// requireAssignedFixer ensures only the task's fixer can pass the gate.
func requireAssignedFixer(c echo.Context, taskID string) (string, error) {
	fixerID, ok := requireUser(c)
	if !ok {
		return "", c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	task, err := engine.Store().TaskByID(c.Request().Context(), taskID)
	if err != nil {
		return "", lifecycleError(c, err)
	}
	if task.FixerID != fixerID {
		return "", c.JSON(http.StatusForbidden, echo.Map{"error": "task is not assigned to you"})
	}
	return fixerID, nil
}

// =========================
// CheckIn - Fixer scans the customer's QR at the door
// =========================
func CheckIn(c echo.Context) error {
	taskID, req, err := bindQR(c)
	if err != nil {
		return err
	}
	if _, err := requireAssignedFixer(c, taskID); err != nil {
		return err
	}

	task, err := engine.CheckIn(c.Request().Context(), taskID, req.QRToken)
	if err != nil {
		return lifecycleError(c, err)
	}

	messaging.BroadcastTaskUpdate(task.ID, sanitized(*task))
	return c.JSON(http.StatusOK, sanitized(*task))
}

// =========================
// CheckOut - Job complete, escrow settles
// =========================
// A checkout whose settlement invocation fails still records the done
// state; the response flags it unsettled and a reconcile job keeps
// retrying, so the client never sees a silent false success.
func CheckOut(c echo.Context) error {
	taskID, req, err := bindQR(c)
	if err != nil {
		return err
	}
	if _, err := requireAssignedFixer(c, taskID); err != nil {
		return err
	}

	task, err := engine.CheckOut(c.Request().Context(), taskID, req.QRToken)
	if errors.Is(err, lifecycle.ErrSettlementPending) {
		_ = alerts.EnqueueSettlementReconcile(task.ID)
		messaging.BroadcastTaskUpdate(task.ID, sanitized(*task))
		return c.JSON(http.StatusAccepted, echo.Map{
			"task":    sanitized(*task),
			"settled": false,
			"message": "job completed, payout pending reconciliation",
		})
	}
	if err != nil {
		return lifecycleError(c, err)
	}

	messaging.BroadcastTaskUpdate(task.ID, sanitized(*task))
	return c.JSON(http.StatusOK, echo.Map{
		"task":    sanitized(*task),
		"settled": true,
	})
}
