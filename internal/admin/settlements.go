package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

var engine *lifecycle.Engine

// Init hands the admin handlers the shared lifecycle engine.
func Init(e *lifecycle.Engine) {
	engine = e
}

type AdminSettlement struct {
	TaskID     string    `json:"task_id"`
	FixerID    string    `json:"fixer_id"`
	Amount     int64     `json:"amount"`
	Payout     int64     `json:"payout"`
	Commission int64     `json:"commission"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /admin/settlements
func ListSettlements(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT task_id, fixer_id, amount, payout, commission, created_at
		 FROM settlements ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch settlements"})
	}
	defer rows.Close()

	var settlements []AdminSettlement
	for rows.Next() {
		var s AdminSettlement
		if err := rows.Scan(&s.TaskID, &s.FixerID, &s.Amount, &s.Payout, &s.Commission, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read settlement record"})
		}
		settlements = append(settlements, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"settlements": settlements})
}

// POST /admin/tasks/:id/settle
//
// Manual escrow release for a completed task whose automatic settlement
// failed. Safe to call more than once.
func SettleTask(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task id required"})
	}

	ctx := c.Request().Context()
	task, err := engine.Store().TaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
	}

	if err := engine.Settle(ctx, task); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "task is not completed yet"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "settlement applied", "task_id": taskID})
}

// POST /admin/settlements/reconcile
func Reconcile(c echo.Context) error {
	settled, err := engine.ReconcileSettlements(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconciliation failed", "settled": settled})
	}
	return c.JSON(http.StatusOK, echo.Map{"settled": settled})
}
