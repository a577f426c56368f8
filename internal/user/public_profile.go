package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
)

// GET /user/:id/profile
// Public reputation view: no phone, no location.
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id         string
		name       string
		avatarURL  string
		role       string
		skills     []string
		avgRating  float64
		totalJobs  int
		isVerified bool
		createdAt  time.Time
	)

	query := `
		SELECT id, name, avatar_url, role, skills, avg_rating, total_jobs, is_verified, created_at
		FROM users
		WHERE id = $1
	`
	err := db.Conn.QueryRow(context.Background(), query, userID).Scan(
		&id, &name, &avatarURL, &role, &skills, &avgRating, &totalJobs, &isVerified, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          id,
		"name":        name,
		"avatar_url":  avatarURL,
		"role":        role,
		"skills":      skills,
		"avg_rating":  avgRating,
		"total_jobs":  totalJobs,
		"is_verified": isVerified,
		"created_at":  createdAt.Format(time.RFC3339),
	})
}
