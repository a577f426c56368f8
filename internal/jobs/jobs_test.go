package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	return e
}

// newTestStore swaps the package engine onto a fresh in-memory store.
func newTestStore(t *testing.T) *lifecycle.MemStore {
	t.Helper()
	store := lifecycle.NewMemStore()
	Init(lifecycle.NewEngine(store))
	return store
}

func jsonBody(t *testing.T, v interface{}) *strings.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return strings.NewReader(string(b))
}

// call runs a handler with an authenticated echo context.
func call(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, method, target string,
	body *strings.Reader, userID, role string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// seedTask creates an open task directly through the engine.
func seedTask(t *testing.T, customerID string) *lifecycle.Task {
	t.Helper()
	task, err := engine.CreateTask(context.Background(), lifecycle.CreateTaskInput{
		Title:      "Priz yanmis, kontak atiyor",
		Category:   lifecycle.CategoryElektrik,
		Latitude:   41.0082,
		Longitude:  28.9784,
		CustomerID: customerID,
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

// seedActiveTask walks a task to the active state with an accepted offer.
func seedActiveTask(t *testing.T, customerID, fixerID string, price int64) *lifecycle.Task {
	t.Helper()
	ctx := context.Background()
	task := seedTask(t, customerID)
	offer, err := engine.SubmitOffer(ctx, task.ID, fixerID, price, 30, "")
	if err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	active, _, err := engine.AcceptOffer(ctx, offer.ID)
	if err != nil {
		t.Fatalf("seed accept: %v", err)
	}
	return active
}
