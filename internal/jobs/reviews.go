package jobs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// =========================
// CreateReview - Customer rates the fixer after a done task
// =========================
// One review per task; the fixer's avg_rating and total_jobs move in the
// same transaction.
func CreateReview(c echo.Context) error {
	customerID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	taskID := c.Param("id")
	if _, err := uuid.Parse(taskID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id format"})
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	task, err := engine.Store().TaskByID(c.Request().Context(), taskID)
	if err != nil {
		return lifecycleError(c, err)
	}
	if task.CustomerID != customerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your task"})
	}
	if task.Status != lifecycle.TaskDone {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can only review completed tasks"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	reviewID := uuid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, task_id, reviewer_id, fixer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reviewID, taskID, customerID, task.FixerID, req.Rating, req.Comment, time.Now(),
	)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this task"})
	}

	// Recompute reputation from the review table so retries stay exact.
	_, err = tx.Exec(ctx, `
		UPDATE users SET
			avg_rating = (SELECT AVG(rating) FROM reviews WHERE fixer_id = $1),
			total_jobs = (SELECT COUNT(*) FROM reviews WHERE fixer_id = $1)
		WHERE id = $1`, task.FixerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update fixer rating"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit review"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"review_id": reviewID,
		"task_id":   taskID,
		"rating":    req.Rating,
	})
}

// =========================
// GetFixerReviews - Public reputation feed
// =========================
func GetFixerReviews(c echo.Context) error {
	fixerID := c.Param("id")
	if _, err := uuid.Parse(fixerID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fixer id format"})
	}

	rows, err := db.Conn.Query(context.Background(), `
		SELECT r.id, r.task_id, r.rating, r.comment, r.created_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.fixer_id = $1
		ORDER BY r.created_at DESC`, fixerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}
	defer rows.Close()

	var reviews []echo.Map
	for rows.Next() {
		var id, taskID, comment, reviewerName string
		var rating int
		var createdAt time.Time
		if err := rows.Scan(&id, &taskID, &rating, &comment, &createdAt, &reviewerName); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse review"})
		}
		reviews = append(reviews, echo.Map{
			"id":            id,
			"task_id":       taskID,
			"rating":        rating,
			"comment":       comment,
			"reviewer_name": reviewerName,
			"created_at":    createdAt.UTC().Format(time.RFC3339),
		})
	}

	var avgRating float64
	err = db.Conn.QueryRow(context.Background(),
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE fixer_id = $1`, fixerID).
		Scan(&avgRating)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute rating"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"fixer_id":   fixerID,
		"avg_rating": avgRating,
		"count":      len(reviews),
		"reviews":    reviews,
	})
}
