package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/middleware"
)

const (
	otpLength = 6
	otpTTL    = 5 * time.Minute
	tokenTTL  = 72 * time.Hour
)

type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// generateOTPCode returns a 6-digit numeric login code from crypto/rand.
func generateOTPCode() (string, error) {
	digits := make([]byte, otpLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// hashOTP stores only a bcrypt hash of the code at rest.
func hashOTP(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(h), err
}

func verifyOTPHash(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// ===== RequestOTP =====
// Issues a fresh login code for the phone and hands it to the SMS queue.
func RequestOTP(c echo.Context) error {
	req := new(RequestOTPRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone must be in E.164 format"})
	}

	code, err := generateOTPCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	hash, err := hashOTP(code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := context.Background()
	_, err = db.Conn.Exec(ctx, `
		INSERT INTO otp_codes (phone, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = NOW()`,
		req.Phone, hash, time.Now().Add(otpTTL),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store login code"})
	}

	// SMS delivery is best-effort; the code stays valid either way.
	_ = alerts.EnqueueOTPSMS(req.Phone, code)

	return c.JSON(http.StatusOK, echo.Map{"message": "login code sent"})
}

// ===== VerifyOTP =====
// Exchanges a valid code for a JWT, creating the user row on first login.
func VerifyOTP(c echo.Context) error {
	req := new(VerifyOTPRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and 6-digit code required"})
	}

	ctx := context.Background()

	var hash string
	var expiresAt time.Time
	err := db.Conn.QueryRow(ctx,
		`SELECT code_hash, expires_at FROM otp_codes WHERE phone = $1`, req.Phone).
		Scan(&hash, &expiresAt)
	if err == pgx.ErrNoRows {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no login code requested for this phone"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify code"})
	}
	if time.Now().After(expiresAt) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login code expired"})
	}
	if !verifyOTPHash(hash, req.Code) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong login code"})
	}

	// Single use: burn the code before issuing a token.
	_, _ = db.Conn.Exec(ctx, `DELETE FROM otp_codes WHERE phone = $1`, req.Phone)

	var userID, name, role string
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO users (phone, is_online)
		VALUES ($1, TRUE)
		ON CONFLICT (phone) DO UPDATE SET is_online = TRUE
		RETURNING id, name, role`, req.Phone).
		Scan(&userID, &name, &role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}

	signed, err := middleware.IssueToken(userID, role, tokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":            signed,
		"user_id":          userID,
		"name":             name,
		"role":             role,
		"needs_onboarding": role == "",
	})
}
