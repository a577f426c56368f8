package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/middleware"
)

type OnboardRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Role string `json:"role" validate:"required,oneof=customer fixer"`
}

// ===== Onboard =====
// Sets the user's name and role once. The role is immutable afterwards; a
// second call fails instead of flipping customer <-> fixer. A zeroed wallet
// is created in the same transaction.
func Onboard(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(OnboardRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and role (customer|fixer) required"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	// The role guard in the predicate is what makes the role set-once.
	ct, err := tx.Exec(ctx,
		`UPDATE users SET name = $1, role = $2 WHERE id = $3 AND role = ''`,
		req.Name, req.Role, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "role already chosen"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO wallets (user_id, balance, escrow_held, total_earned)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "wallet creation failed"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	// Re-issue the token so it carries the chosen role.
	signed, err := middleware.IssueToken(userID, req.Role, tokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": signed,
		"name":  req.Name,
		"role":  req.Role,
	})
}
