package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/gelsin-dev/gelsin/internal/db"
)

type AdminUser struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	AvgRating  float64   `json:"avg_rating"`
	TotalJobs  int       `json:"total_jobs"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	query := `SELECT id, phone, name, role, is_verified, avg_rating, total_jobs, created_at
		FROM users ORDER BY created_at DESC`
	args := []any{}
	if role := c.QueryParam("role"); role != "" {
		query = `SELECT id, phone, name, role, is_verified, avg_rating, total_jobs, created_at
			FROM users WHERE role = $1 ORDER BY created_at DESC`
		args = append(args, role)
	}

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Phone, &u.Name, &u.Role, &u.IsVerified, &u.AvgRating, &u.TotalJobs, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/fixers/:id/verify
func VerifyFixer(c echo.Context) error {
	fixerID := c.Param("id")
	if fixerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fixer id required"})
	}

	tag, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_verified = TRUE WHERE id = $1 AND role = 'fixer'`, fixerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify fixer"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "fixer not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fixer verified", "fixer_id": fixerID})
}

// POST /admin/fixers/:id/unverify
func UnverifyFixer(c echo.Context) error {
	fixerID := c.Param("id")
	if fixerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fixer id required"})
	}

	tag, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_verified = FALSE WHERE id = $1 AND role = 'fixer'`, fixerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update fixer"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "fixer not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fixer verification revoked", "fixer_id": fixerID})
}
