package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var id, phone, name, role, avatarURL string
	var avgRating float64
	var totalJobs int
	var isVerified bool
	err := db.Conn.QueryRow(context.Background(), `
		SELECT id, phone, name, role, avatar_url, avg_rating, total_jobs, is_verified
		FROM users WHERE id = $1`, userID).
		Scan(&id, &phone, &name, &role, &avatarURL, &avgRating, &totalJobs, &isVerified)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          id,
		"phone":       phone,
		"name":        name,
		"role":        role,
		"avatar_url":  avatarURL,
		"avg_rating":  avgRating,
		"total_jobs":  totalJobs,
		"is_verified": isVerified,
	})
}
