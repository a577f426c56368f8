package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine owns the task/offer lifecycle rules. All mutations flow through
// here; handlers never write task or offer state directly.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the engine clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Store exposes the backing store for read-side handlers.
func (e *Engine) Store() Store { return e.store }

// CreateTaskInput carries the customer-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    Category
	Latitude    float64
	Longitude   float64
	Address     string
	IsUrgent    bool
	PhotoURLs   []string
	CustomerID  string
}

// CreateTask persists a new open task with a fresh QR token.
func (e *Engine) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrValidation)
	}
	if !ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, fmt.Errorf("%w: coordinate out of range", ErrValidation)
	}
	if len(in.PhotoURLs) > MaxTaskPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", ErrValidation, MaxTaskPhotos)
	}

	now := e.now()
	token, err := NewQRToken(now)
	if err != nil {
		return nil, err
	}
	t := &Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      TaskOpen,
		IsUrgent:    in.IsUrgent,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		PhotoURLs:   append([]string(nil), in.PhotoURLs...),
		QRToken:     token,
		CustomerID:  in.CustomerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddPhoto attaches an uploaded photo URL to a task, capped at MaxTaskPhotos.
func (e *Engine) AddPhoto(ctx context.Context, taskID, url string) (*Task, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: photo url is required", ErrValidation)
	}
	return e.store.AddTaskPhoto(ctx, taskID, url)
}

// SubmitOffer appends a pending offer from a fixer against an open task.
func (e *Engine) SubmitOffer(ctx context.Context, taskID, fixerID string, price int64, etaMinutes int, note string) (*Offer, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if etaMinutes <= 0 {
		return nil, fmt.Errorf("%w: eta must be positive", ErrValidation)
	}
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != TaskOpen {
		return nil, fmt.Errorf("%w: status is %s", ErrTaskNotOpen, task.Status)
	}
	if task.CustomerID == fixerID {
		return nil, fmt.Errorf("%w: cannot bid on your own task", ErrValidation)
	}
	o := &Offer{
		ID:         uuid.New().String(),
		TaskID:     taskID,
		FixerID:    fixerID,
		Price:      price,
		ETAMinutes: etaMinutes,
		Note:       note,
		Status:     OfferPending,
		CreatedAt:  e.now(),
	}
	if err := e.store.CreateOffer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AcceptOffer applies the customer's single acceptance action: the offer
// becomes accepted, every sibling offer rejected, and the task moves
// open -> active with the offer's fixer and price, all as one atomic unit.
// Exactly one of N racing acceptances wins; losers get ErrAlreadyAssigned.
func (e *Engine) AcceptOffer(ctx context.Context, offerID string) (*Task, *Offer, error) {
	offer, err := e.store.OfferByID(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if offer.Status != OfferPending {
		return nil, nil, fmt.Errorf("%w: offer already %s", ErrAlreadyAssigned, offer.Status)
	}
	task, err := e.store.AcceptOffer(ctx, offer)
	if err != nil {
		return nil, nil, err
	}
	offer.Status = OfferAccepted
	return task, offer, nil
}

// CheckIn verifies the presented QR token and records the fixer's arrival.
func (e *Engine) CheckIn(ctx context.Context, taskID, presentedToken string) (*Task, error) {
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if presentedToken != task.QRToken {
		return nil, ErrTokenMismatch
	}
	if task.Status != TaskActive {
		return nil, fmt.Errorf("%w: status is %s, want active", ErrInvalidState, task.Status)
	}
	return e.store.SetCheckIn(ctx, taskID, e.now())
}

// CheckOut verifies the token, completes the task and triggers escrow
// settlement synchronously. When the checkout is recorded but settlement
// fails, the returned task reflects the done state and the error wraps
// ErrSettlementPending so the caller can schedule reconciliation instead of
// reporting success.
func (e *Engine) CheckOut(ctx context.Context, taskID, presentedToken string) (*Task, error) {
	task, err := e.store.TaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if presentedToken != task.QRToken {
		return nil, ErrTokenMismatch
	}
	if task.CheckinAt == nil {
		return nil, ErrPrecursorMissing
	}
	if task.Status != TaskActive {
		return nil, fmt.Errorf("%w: status is %s, want active", ErrInvalidState, task.Status)
	}
	done, err := e.store.SetCheckOut(ctx, taskID, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.Settle(ctx, done); err != nil {
		return done, fmt.Errorf("%w: %v", ErrSettlementPending, err)
	}
	return done, nil
}

// Settle releases escrow for a completed task. Idempotent: re-settling an
// already settled task is a no-op, so retries never double-pay.
func (e *Engine) Settle(ctx context.Context, task *Task) error {
	if task.Status != TaskDone {
		return fmt.Errorf("%w: status is %s, want done", ErrInvalidState, task.Status)
	}
	s := ComputeSettlement(task.ID, task.FixerID, task.Price, e.now())
	_, err := e.store.ApplySettlement(ctx, s)
	return err
}

// ReconcileSettlements retries settlement for every done-but-unsettled task
// and returns how many were applied.
func (e *Engine) ReconcileSettlements(ctx context.Context) (int, error) {
	tasks, err := e.store.UnsettledTasks(ctx)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range tasks {
		if err := e.Settle(ctx, &tasks[i]); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}
