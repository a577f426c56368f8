package jobs

import (
	"context"
	"net/http"
	"testing"

	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

func TestSubmitOffer(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")

	rec := call(t, e, SubmitOffer, http.MethodPost, "/tasks/"+task.ID+"/offers",
		jsonBody(t, map[string]interface{}{"price": 350, "eta_minutes": 45, "note": "parcayi getiririm"}),
		"fixer-1", "fixer", map[string]string{"id": task.ID})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var offer lifecycle.Offer
	decode(t, rec, &offer)
	if offer.Status != lifecycle.OfferPending || offer.Price != 350 {
		t.Errorf("offer: %+v", offer)
	}
}

func TestSubmitOffer_RejectsNonPositivePrice(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")

	rec := call(t, e, SubmitOffer, http.MethodPost, "/tasks/"+task.ID+"/offers",
		jsonBody(t, map[string]interface{}{"price": 0, "eta_minutes": 45}),
		"fixer-1", "fixer", map[string]string{"id": task.ID})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListOffers_OwnerOnly(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")
	if _, err := engine.SubmitOffer(context.Background(), task.ID, "fixer-1", 200, 30, ""); err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	params := map[string]string{"id": task.ID}

	rec := call(t, e, ListOffers, http.MethodGet, "/tasks/"+task.ID+"/offers", nil,
		"customer-1", "customer", params)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner list: expected 200, got %d", rec.Code)
	}

	rec = call(t, e, ListOffers, http.MethodGet, "/tasks/"+task.ID+"/offers", nil,
		"customer-2", "customer", params)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger list: expected 403, got %d", rec.Code)
	}
}

func TestAcceptOffer(t *testing.T) {
	newTestStore(t)
	e := newTestEcho()
	task := seedTask(t, "customer-1")
	ctx := context.Background()
	first, err := engine.SubmitOffer(ctx, task.ID, "fixer-1", 200, 30, "")
	if err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	second, err := engine.SubmitOffer(ctx, task.ID, "fixer-2", 180, 60, "")
	if err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	t.Run("stranger cannot accept", func(t *testing.T) {
		rec := call(t, e, AcceptOffer, http.MethodPost, "/offers/"+first.ID+"/accept", nil,
			"customer-2", "customer", map[string]string{"id": first.ID})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("owner accepts", func(t *testing.T) {
		rec := call(t, e, AcceptOffer, http.MethodPost, "/offers/"+first.ID+"/accept", nil,
			"customer-1", "customer", map[string]string{"id": first.ID})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Task  lifecycle.Task  `json:"task"`
			Offer lifecycle.Offer `json:"offer"`
		}
		decode(t, rec, &resp)
		if resp.Task.Status != lifecycle.TaskActive || resp.Task.FixerID != "fixer-1" {
			t.Errorf("task after accept: %+v", resp.Task)
		}
		if resp.Offer.Status != lifecycle.OfferAccepted {
			t.Errorf("offer status: %s", resp.Offer.Status)
		}
	})

	t.Run("second acceptance conflicts", func(t *testing.T) {
		rec := call(t, e, AcceptOffer, http.MethodPost, "/offers/"+second.ID+"/accept", nil,
			"customer-1", "customer", map[string]string{"id": second.ID})
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
