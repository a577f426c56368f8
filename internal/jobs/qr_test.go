package jobs

import (
	"context"
	"net/http"
	"testing"

	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

func TestCheckIn(t *testing.T) {
	store := newTestStore(t)
	e := newTestEcho()
	task := seedActiveTask(t, "customer-1", "fixer-1", 400)
	params := map[string]string{"id": task.ID}
	body := func() map[string]interface{} {
		return map[string]interface{}{"qr_token": task.QRToken}
	}

	t.Run("wrong fixer forbidden", func(t *testing.T) {
		rec := call(t, e, CheckIn, http.MethodPost, "/tasks/"+task.ID+"/checkin",
			jsonBody(t, body()), "fixer-2", "fixer", params)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("wrong token rejected without mutation", func(t *testing.T) {
		rec := call(t, e, CheckIn, http.MethodPost, "/tasks/"+task.ID+"/checkin",
			jsonBody(t, map[string]interface{}{"qr_token": "GLS-0-XXXXXX"}), "fixer-1", "fixer", params)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		after, _ := store.TaskByID(context.Background(), task.ID)
		if after.CheckinAt != nil {
			t.Error("check-in recorded despite wrong token")
		}
	})

	t.Run("assigned fixer with real token", func(t *testing.T) {
		rec := call(t, e, CheckIn, http.MethodPost, "/tasks/"+task.ID+"/checkin",
			jsonBody(t, body()), "fixer-1", "fixer", params)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got lifecycle.Task
		decode(t, rec, &got)
		if got.CheckinAt == nil {
			t.Error("check-in time missing in response")
		}
		if got.QRToken != "" {
			t.Error("QR token echoed back to the fixer")
		}
	})
}

func TestCheckOut(t *testing.T) {
	store := newTestStore(t)
	e := newTestEcho()
	task := seedActiveTask(t, "customer-1", "fixer-1", 400)
	params := map[string]string{"id": task.ID}
	body := jsonBody(t, map[string]interface{}{"qr_token": task.QRToken})

	t.Run("before check-in conflicts", func(t *testing.T) {
		rec := call(t, e, CheckOut, http.MethodPost, "/tasks/"+task.ID+"/checkout",
			jsonBody(t, map[string]interface{}{"qr_token": task.QRToken}), "fixer-1", "fixer", params)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	if _, err := engine.CheckIn(context.Background(), task.ID, task.QRToken); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	t.Run("settles on checkout", func(t *testing.T) {
		rec := call(t, e, CheckOut, http.MethodPost, "/tasks/"+task.ID+"/checkout",
			body, "fixer-1", "fixer", params)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Task    lifecycle.Task `json:"task"`
			Settled bool           `json:"settled"`
		}
		decode(t, rec, &resp)
		if resp.Task.Status != lifecycle.TaskDone || !resp.Settled {
			t.Errorf("checkout response: status %s settled %v", resp.Task.Status, resp.Settled)
		}

		// 400 at 10% commission -> 360 to the fixer.
		w := store.WalletByUser("fixer-1")
		if w.Balance != 360 {
			t.Errorf("fixer balance: %d, want 360", w.Balance)
		}
	})
}
