package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/gelsin-dev/gelsin/internal/db"
)

type AdminTask struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	IsUrgent   bool      `json:"is_urgent"`
	CustomerID string    `json:"customer_id"`
	FixerID    string    `json:"fixer_id,omitempty"`
	Price      int64     `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /admin/tasks
func ListTasks(c echo.Context) error {
	query := `SELECT id, title, category, status, is_urgent, customer_id, fixer_id, price, created_at
		FROM tasks ORDER BY created_at DESC`
	args := []any{}
	if status := c.QueryParam("status"); status != "" {
		query = `SELECT id, title, category, status, is_urgent, customer_id, fixer_id, price, created_at
			FROM tasks WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch tasks"})
	}
	defer rows.Close()

	var tasks []AdminTask
	for rows.Next() {
		var t AdminTask
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &t.Status, &t.IsUrgent, &t.CustomerID, &t.FixerID, &t.Price, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read task record"})
		}
		tasks = append(tasks, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}
