package jobs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/geo"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required"`
	Latitude    float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64  `json:"longitude" validate:"min=-180,max=180"`
	Address     string   `json:"address"`
	IsUrgent    bool     `json:"is_urgent"`
	PhotoURLs   []string `json:"photo_urls" validate:"max=4"`
}

// =========================
// CreateTask - Customer posts a repair job
// =========================
func CreateTask(c echo.Context) error {
	customerID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateTaskRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, category and coordinates required"})
	}

	task, err := engine.CreateTask(c.Request().Context(), lifecycle.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    lifecycle.Category(req.Category),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		IsUrgent:    req.IsUrgent,
		PhotoURLs:   req.PhotoURLs,
		CustomerID:  customerID,
	})
	if err != nil {
		return lifecycleError(c, err)
	}

	// Announce to nearby fixers (best-effort; urgency decides the delay).
	_ = alerts.EnqueueTaskFanout(alerts.FanoutPayload{
		TaskID:    task.ID,
		Title:     task.Title,
		Category:  string(task.Category),
		Latitude:  task.Latitude,
		Longitude: task.Longitude,
		IsUrgent:  task.IsUrgent,
		CreatedAt: task.CreatedAt,
	})

	return c.JSON(http.StatusCreated, task)
}

// =========================
// GetNearbyTasks - Fixer radar search, open tasks only
// =========================
func GetNearbyTasks(c echo.Context) error {
	if _, ok := requireUser(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat is required"})
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lng is required"})
	}
	radius := float64(geo.DefaultRadiusMeters)
	if r := c.QueryParam("radius"); r != "" {
		radius, err = strconv.ParseFloat(r, 64)
		if err != nil || radius <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "radius must be a positive number of meters"})
		}
	}
	category := lifecycle.Category(c.QueryParam("category"))
	if category != "" && !lifecycle.ValidCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	tasks, err := engine.Store().SearchNearby(c.Request().Context(), lifecycle.NearbyFilter{
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radius,
		Category:     category,
	})
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": hideTokens(tasks)})
}

// =========================
// GetMyTasks - Customer's own tasks with offers
// =========================
func GetMyTasks(c echo.Context) error {
	customerID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	tasks, err := engine.Store().TasksByCustomer(ctx, customerID)
	if err != nil {
		return lifecycleError(c, err)
	}

	out := make([]echo.Map, 0, len(tasks))
	for i := range tasks {
		offers, err := engine.Store().OffersByTask(ctx, tasks[i].ID)
		if err != nil {
			return lifecycleError(c, err)
		}
		out = append(out, echo.Map{"task": tasks[i], "offers": offers})
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": out})
}

// =========================
// GetAssignedTasks - Fixer's active and done tasks
// =========================
func GetAssignedTasks(c echo.Context) error {
	fixerID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tasks, err := engine.Store().TasksByFixer(c.Request().Context(), fixerID)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": hideTokens(tasks)})
}

// =========================
// GetTask - Detail view for a participant
// =========================
func GetTask(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	task, err := engine.Store().TaskByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return lifecycleError(c, err)
	}

	// The QR token is a capability: only the owning customer may see it,
	// everyone else gets the task without it.
	if task.CustomerID != userID {
		task.QRToken = ""
	}
	return c.JSON(http.StatusOK, task)
}

// sanitized returns a copy of the task without its QR capability, safe to
// broadcast to both participants.
func sanitized(t lifecycle.Task) lifecycle.Task {
	t.QRToken = ""
	return t
}

// hideTokens strips the QR capability from list responses.
func hideTokens(tasks []lifecycle.Task) []lifecycle.Task {
	for i := range tasks {
		tasks[i].QRToken = ""
	}
	return tasks
}
