package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
)

// Withdraw handles immediate user withdrawals
func Withdraw(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized or invalid user",
		})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request body",
		})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "amount must be greater than zero",
		})
	}

	ctx := context.Background()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "could not start transaction",
		})
	}
	defer tx.Rollback(ctx)

	// Conditional deduction; the balance guard refuses overdrafts without
	// a separate read.
	res, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $1 WHERE user_id = $2 AND balance >= $1`,
		req.Amount, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "could not update wallet balance",
		})
	}
	if res.RowsAffected() == 0 {
		_, _ = db.Conn.Exec(ctx,
			`INSERT INTO transactions (id, user_id, type, amount, status, created_at)
			 VALUES ($1, $2, 'withdrawal', $3, 'failed', $4)`,
			uuid.New().String(), uid, req.Amount, time.Now(),
		)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "insufficient balance",
		})
	}

	withdrawalID := uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, status, created_at)
		 VALUES ($1, $2, 'withdrawal', $3, 'completed', $4)`,
		withdrawalID, uid, req.Amount, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "could not record transaction",
		})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "could not commit withdrawal",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"withdrawal_id": withdrawalID,
		"amount":        req.Amount,
		"status":        "completed",
	})
}
