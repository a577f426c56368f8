package messaging

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/db"
)

// taskParticipants fetches the customer and assigned fixer of a task, the
// only two parties allowed in its thread.
func taskParticipants(ctx context.Context, taskID string) (customerID, fixerID string, err error) {
	err = db.Conn.QueryRow(ctx,
		`SELECT customer_id, fixer_id FROM tasks WHERE id = $1`, taskID,
	).Scan(&customerID, &fixerID)
	return customerID, fixerID, err
}

// requireParticipant resolves the chat counterparty, rejecting outsiders.
func requireParticipant(c echo.Context, taskID string) (userID, otherID string, httpErr error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", "", c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	customerID, fixerID, err := taskParticipants(c.Request().Context(), taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return "", "", c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch task"})
	}
	switch userID {
	case customerID:
		return userID, fixerID, nil
	case fixerID:
		return userID, customerID, nil
	default:
		return "", "", c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this task"})
	}
}

// SendMessage - customer or fixer writes into the task thread
func SendMessage(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&body); err != nil || body.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	userID, receiverID, httpErr := requireParticipant(c, taskID)
	if httpErr != nil {
		return httpErr
	}
	if receiverID == "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no fixer assigned yet"})
	}

	msgID := uuid.New().String()
	var createdAt time.Time
	err := db.Conn.QueryRow(context.Background(),
		`INSERT INTO messages (id, task_id, sender_id, receiver_id, body)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		msgID, taskID, userID, receiverID, body.Body,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	msg := echo.Map{
		"id":          msgID,
		"task_id":     taskID,
		"sender_id":   userID,
		"receiver_id": receiverID,
		"body":        body.Body,
		"read":        false,
		"created_at":  createdAt.UTC().Format(time.RFC3339),
	}

	// Realtime push; subscribers de-duplicate by message id since the
	// stream may replay after a reconnect.
	BroadcastNewMessage(taskID, msg)

	// In-app notification for the receiver (best-effort)
	_ = alerts.EnqueueMessageAlert(taskID, userID, receiverID, body.Body)

	return c.JSON(http.StatusCreated, msg)
}

// ListMessages - thread history, oldest first, optional ?since for
// incremental fetches
func ListMessages(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}
	if _, _, httpErr := requireParticipant(c, taskID); httpErr != nil {
		return httpErr
	}

	query := `SELECT id, sender_id, receiver_id, body, read, created_at
		FROM messages WHERE task_id = $1 ORDER BY created_at ASC`
	args := []any{taskID}
	if sinceStr := c.QueryParam("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, use RFC3339"})
		}
		query = `SELECT id, sender_id, receiver_id, body, read, created_at
			FROM messages WHERE task_id = $1 AND created_at > $2 ORDER BY created_at ASC`
		args = append(args, since)
	}

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	defer rows.Close()

	type message struct {
		ID         string `json:"id"`
		SenderID   string `json:"sender_id"`
		ReceiverID string `json:"receiver_id"`
		Body       string `json:"body"`
		Read       bool   `json:"read"`
		CreatedAt  string `json:"created_at"`
	}

	var msgs []message
	for rows.Next() {
		var m message
		var createdAt time.Time
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Read, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		m.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		msgs = append(msgs, m)
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// UnreadCount - unread messages addressed to the current user in a thread
func UnreadCount(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}
	userID, _, httpErr := requireParticipant(c, taskID)
	if httpErr != nil {
		return httpErr
	}

	var count int64
	err := db.Conn.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM messages WHERE task_id = $1 AND receiver_id = $2 AND read = FALSE`,
		taskID, userID,
	).Scan(&count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute unread count"})
	}

	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}

// MarkThreadRead - receiver marks every message in the thread as read
func MarkThreadRead(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}
	userID, _, httpErr := requireParticipant(c, taskID)
	if httpErr != nil {
		return httpErr
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE messages SET read = TRUE WHERE task_id = $1 AND receiver_id = $2 AND read = FALSE`,
		taskID, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark read"})
	}

	if res.RowsAffected() > 0 {
		BroadcastMessageRead(taskID, echo.Map{
			"task_id": taskID,
			"user_id": userID,
			"count":   res.RowsAffected(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"marked": res.RowsAffected()})
}
