package jobs

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/messaging"
)

type SubmitOfferRequest struct {
	Price      int64  `json:"price" validate:"required,gt=0"`
	ETAMinutes int    `json:"eta_minutes" validate:"required,gt=0"`
	Note       string `json:"note"`
}

// =========================
// SubmitOffer - Fixer bids on an open task
// =========================
func SubmitOffer(c echo.Context) error {
	fixerID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}

	req := new(SubmitOfferRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price and eta_minutes must be positive"})
	}

	offer, err := engine.SubmitOffer(c.Request().Context(), taskID, fixerID, req.Price, req.ETAMinutes, req.Note)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(http.StatusCreated, offer)
}

// =========================
// ListOffers - Task owner reviews the bids
// =========================
func ListOffers(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	taskID := c.Param("id")
	ctx := c.Request().Context()
	task, err := engine.Store().TaskByID(ctx, taskID)
	if err != nil {
		return lifecycleError(c, err)
	}
	if task.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your task"})
	}

	offers, err := engine.Store().OffersByTask(ctx, taskID)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": offers})
}

// =========================
// AcceptOffer - Customer's single acceptance action
// =========================
// The accepted offer wins, every sibling is rejected and the task goes
// active with the offer's fixer and price in one atomic unit. A concurrent
// second acceptance loses with a conflict.
func AcceptOffer(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id"})
	}

	ctx := c.Request().Context()
	offer, err := engine.Store().OfferByID(ctx, offerID)
	if err != nil {
		return lifecycleError(c, err)
	}
	owned, err := engine.Store().TaskByID(ctx, offer.TaskID)
	if err != nil {
		return lifecycleError(c, err)
	}
	if owned.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your task"})
	}

	task, accepted, err := engine.AcceptOffer(ctx, offerID)
	if err != nil {
		return lifecycleError(c, err)
	}

	// Realtime update for anyone watching the task, notification for the
	// winning fixer. Both best-effort.
	messaging.BroadcastTaskUpdate(task.ID, sanitized(*task))
	ref := task.ID
	_ = alerts.CreateNotification(accepted.FixerID, "offer:accepted",
		"Teklifin kabul edildi: "+task.Title, "", &ref)

	return c.JSON(http.StatusOK, echo.Map{
		"task":  task,
		"offer": accepted,
	})
}
