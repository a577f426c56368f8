package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
)

type UpdateProfileRequest struct {
	Name      string   `json:"name"`
	AvatarURL string   `json:"avatar_url"`
	Skills    []string `json:"skills"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsOnline  *bool    `json:"is_online"`
}

// PATCH /user/profile
// Role is deliberately absent here: it is immutable after onboarding.
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
		    avatar_url = COALESCE(NULLIF($2, ''), avatar_url),
		    skills = COALESCE($3, skills),
		    latitude = COALESCE($4, latitude),
		    longitude = COALESCE($5, longitude),
		    is_online = COALESCE($6, is_online)
		WHERE id = $7
	`
	_, err := db.Conn.Exec(c.Request().Context(), query,
		req.Name, req.AvatarURL, req.Skills, req.Latitude, req.Longitude, req.IsOnline, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}
