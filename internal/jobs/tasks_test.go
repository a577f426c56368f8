package jobs

import (
	"context"
	"net/http"
	"testing"

	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

func TestCreateTask(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()

	rec := call(t, e, CreateTask, http.MethodPost, "/tasks", jsonBody(t, map[string]interface{}{
		"title":     "Kombi ariza veriyor",
		"category":  "tesisat",
		"latitude":  41.0082,
		"longitude": 28.9784,
		"is_urgent": true,
	}), "customer-1", "customer", nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task lifecycle.Task
	decode(t, rec, &task)
	if task.Status != lifecycle.TaskOpen {
		t.Errorf("status: got %s", task.Status)
	}
	if task.QRToken == "" {
		t.Error("creator response must include the QR token")
	}
	if !task.IsUrgent {
		t.Error("is_urgent lost in binding")
	}
}

func TestCreateTask_RejectsBadCategory(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()

	rec := call(t, e, CreateTask, http.MethodPost, "/tasks", jsonBody(t, map[string]interface{}{
		"title":     "Dolap kapagi sarkti",
		"category":  "carpentry",
		"latitude":  41.0,
		"longitude": 29.0,
	}), "customer-1", "customer", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetNearbyTasks_FiltersByRadiusAndHidesTokens(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	near := seedTask(t, "customer-1")
	// ~15 km away, outside any sane radius
	if _, err := engine.CreateTask(context.Background(), lifecycle.CreateTaskInput{
		Title:      "Banyo fayansi patladi",
		Category:   lifecycle.CategoryTesisat,
		Latitude:   41.14,
		Longitude:  29.1,
		CustomerID: "customer-2",
	}); err != nil {
		t.Fatalf("seed far task: %v", err)
	}

	rec := call(t, e, GetNearbyTasks, http.MethodGet,
		"/tasks/nearby?lat=41.0082&lng=28.9784", nil, "fixer-1", "fixer", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tasks []lifecycle.Task `json:"tasks"`
	}
	decode(t, rec, &resp)
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != near.ID {
		t.Fatalf("expected only the nearby task, got %d tasks", len(resp.Tasks))
	}
	if resp.Tasks[0].QRToken != "" {
		t.Error("QR token leaked to a searching fixer")
	}
}

func TestGetNearbyTasks_RequiresCoordinates(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()

	rec := call(t, e, GetNearbyTasks, http.MethodGet, "/tasks/nearby", nil, "fixer-1", "fixer", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetTask_TokenOnlyForOwner(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")
	params := map[string]string{"id": task.ID}

	t.Run("owner sees token", func(t *testing.T) {
		rec := call(t, e, GetTask, http.MethodGet, "/tasks/"+task.ID, nil, "customer-1", "customer", params)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got lifecycle.Task
		decode(t, rec, &got)
		if got.QRToken != task.QRToken {
			t.Error("owner should see the QR token")
		}
	})

	t.Run("other users do not", func(t *testing.T) {
		rec := call(t, e, GetTask, http.MethodGet, "/tasks/"+task.ID, nil, "fixer-1", "fixer", params)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got lifecycle.Task
		decode(t, rec, &got)
		if got.QRToken != "" {
			t.Error("QR token leaked to a non-owner")
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		rec := call(t, e, GetTask, http.MethodGet, "/tasks/nope", nil, "customer-1", "customer",
			map[string]string{"id": "nope"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestGetMyTasks_IncludesOffers(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")
	if _, err := engine.SubmitOffer(context.Background(), task.ID, "fixer-1", 300, 45, ""); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	rec := call(t, e, GetMyTasks, http.MethodGet, "/tasks/mine", nil, "customer-1", "customer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Tasks []struct {
			Task   lifecycle.Task    `json:"task"`
			Offers []lifecycle.Offer `json:"offers"`
		} `json:"tasks"`
	}
	decode(t, rec, &resp)
	if len(resp.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(resp.Tasks))
	}
	if len(resp.Tasks[0].Offers) != 1 || resp.Tasks[0].Offers[0].Price != 300 {
		t.Errorf("offers: %+v", resp.Tasks[0].Offers)
	}
}

func TestGetAssignedTasks(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	seedActiveTask(t, "customer-1", "fixer-1", 250)

	rec := call(t, e, GetAssignedTasks, http.MethodGet, "/tasks/assigned", nil, "fixer-1", "fixer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Tasks []lifecycle.Task `json:"tasks"`
	}
	decode(t, rec, &resp)
	if len(resp.Tasks) != 1 || resp.Tasks[0].FixerID != "fixer-1" {
		t.Fatalf("assigned tasks: %+v", resp.Tasks)
	}
	if resp.Tasks[0].QRToken != "" {
		t.Error("QR token leaked in the fixer's list")
	}
}
