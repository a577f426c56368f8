package jobs

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
)

func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

func publicBaseURL() string {
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}

// =========================
// UploadTaskPhoto - multipart photo, returns its public URL
// =========================
// Stored as tasks/<task_id>/<millis>.jpg under the upload dir, served
// statically from /uploads.
func UploadTaskPhoto(c echo.Context) error {
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

	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read photo"})
	}
	defer src.Close()

	rel := filepath.Join("tasks", taskID, fmt.Sprintf("%d.jpg", time.Now().UnixMilli()))
	abs := filepath.Join(uploadDir(), rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store photo"})
	}
	dst, err := os.Create(abs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store photo"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store photo"})
	}

	url := fmt.Sprintf("%s/uploads/%s", publicBaseURL(), filepath.ToSlash(rel))
	updated, err := engine.AddPhoto(ctx, taskID, url)
	if err != nil {
		_ = os.Remove(abs)
		return lifecycleError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"url":  url,
		"task": updated,
	})
}
