package lifecycle

import (
	"context"
	"time"
)

// NearbyFilter narrows a radius search.
type NearbyFilter struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Category     Category // empty = all categories
}

// Store is the persistence contract the engine runs on. Transition methods
// must be atomic conditional updates: they apply the change only if the
// guard still holds and report ErrAlreadyAssigned / ErrInvalidState when a
// concurrent writer got there first. A read-then-write implementation is
// not good enough for AcceptOffer or ApplySettlement.
type Store interface {
	CreateTask(ctx context.Context, t *Task) error
	TaskByID(ctx context.Context, id string) (*Task, error)
	TasksByCustomer(ctx context.Context, customerID string) ([]Task, error)
	TasksByFixer(ctx context.Context, fixerID string) ([]Task, error)
	// SearchNearby returns open tasks within the radius, nearest first.
	SearchNearby(ctx context.Context, f NearbyFilter) ([]Task, error)
	AddTaskPhoto(ctx context.Context, taskID, url string) (*Task, error)

	CreateOffer(ctx context.Context, o *Offer) error
	OfferByID(ctx context.Context, id string) (*Offer, error)
	OffersByTask(ctx context.Context, taskID string) ([]Offer, error)

	// AcceptOffer atomically transitions the parent task open -> active with
	// the offer's fixer and price, marks the offer accepted and every
	// sibling offer rejected. Fails with ErrAlreadyAssigned when the task is
	// no longer open.
	AcceptOffer(ctx context.Context, o *Offer) (*Task, error)

	// SetCheckIn records checkin_at, guarded on status = active.
	SetCheckIn(ctx context.Context, taskID string, at time.Time) (*Task, error)
	// SetCheckOut records checkout_at and transitions active -> done,
	// guarded on status = active and checkin_at being set.
	SetCheckOut(ctx context.Context, taskID string, at time.Time) (*Task, error)

	// ApplySettlement credits the fixer's wallet exactly once per task.
	// Returns applied=false when the task was already settled.
	ApplySettlement(ctx context.Context, s Settlement) (applied bool, err error)
	// SettlementByTask returns ErrNotFound for unsettled tasks.
	SettlementByTask(ctx context.Context, taskID string) (*Settlement, error)
	// UnsettledTasks lists done tasks with no settlement row yet, the
	// reconciliation backlog after a failed settlement invocation.
	UnsettledTasks(ctx context.Context) ([]Task, error)
}
