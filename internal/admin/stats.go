package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/gelsin-dev/gelsin/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, fixers, tasks, open, active, done, offers int
	var settledVolume, commissionEarned int64

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'fixer'`).Scan(&fixers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&tasks)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE status = 'open'`).Scan(&open)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE status = 'active'`).Scan(&active)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE status = 'done'`).Scan(&done)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&offers)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM settlements`).Scan(&settledVolume)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(commission), 0) FROM settlements`).Scan(&commissionEarned)

	return c.JSON(http.StatusOK, echo.Map{
		"users":             users,
		"fixers":            fixers,
		"tasks":             tasks,
		"tasks_open":        open,
		"tasks_active":      active,
		"tasks_done":        done,
		"offers":            offers,
		"settled_volume":    settledVolume,
		"commission_earned": commissionEarned,
	})
}
