package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gelsin-dev/gelsin/internal/geo"
)

// MemStore is a mutex-guarded in-memory Store with the same conditional
// update semantics as the Postgres store. It backs hermetic handler tests
// and the demo seed mode; it is not meant for production traffic.
type MemStore struct {
	mu          sync.Mutex
	tasks       map[string]*Task
	offers      map[string]*Offer
	wallets     map[string]*Wallet
	settlements map[string]*Settlement
}

func NewMemStore() *MemStore {
	return &MemStore{
		tasks:       make(map[string]*Task),
		offers:      make(map[string]*Offer),
		wallets:     make(map[string]*Wallet),
		settlements: make(map[string]*Settlement),
	}
}

func copyTask(t *Task) *Task {
	c := *t
	c.PhotoURLs = append([]string(nil), t.PhotoURLs...)
	if t.CheckinAt != nil {
		at := *t.CheckinAt
		c.CheckinAt = &at
	}
	if t.CheckoutAt != nil {
		at := *t.CheckoutAt
		c.CheckoutAt = &at
	}
	return &c
}

func (m *MemStore) CreateTask(_ context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = copyTask(t)
	return nil
}

func (m *MemStore) TaskByID(_ context.Context, id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return copyTask(t), nil
}

func (m *MemStore) TasksByCustomer(_ context.Context, customerID string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if t.CustomerID == customerID {
			out = append(out, *copyTask(t))
		}
	}
	sortTasksNewestFirst(out)
	return out, nil
}

func (m *MemStore) TasksByFixer(_ context.Context, fixerID string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if t.FixerID == fixerID {
			out = append(out, *copyTask(t))
		}
	}
	sortTasksNewestFirst(out)
	return out, nil
}

func (m *MemStore) SearchNearby(_ context.Context, f NearbyFilter) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if t.Status != TaskOpen {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !geo.WithinRadius(f.Latitude, f.Longitude, t.Latitude, t.Longitude, f.RadiusMeters) {
			continue
		}
		out = append(out, *copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return geo.DistanceMeters(f.Latitude, f.Longitude, out[i].Latitude, out[i].Longitude) <
			geo.DistanceMeters(f.Latitude, f.Longitude, out[j].Latitude, out[j].Longitude)
	})
	return out, nil
}

func (m *MemStore) AddTaskPhoto(_ context.Context, taskID, url string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if len(t.PhotoURLs) >= MaxTaskPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", ErrValidation, MaxTaskPhotos)
	}
	t.PhotoURLs = append(t.PhotoURLs, url)
	return copyTask(t), nil
}

func (m *MemStore) CreateOffer(_ context.Context, o *Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.offers {
		if existing.TaskID == o.TaskID && existing.FixerID == o.FixerID {
			return fmt.Errorf("%w: fixer already has an offer on this task", ErrValidation)
		}
	}
	c := *o
	m.offers[o.ID] = &c
	return nil
}

func (m *MemStore) OfferByID(_ context.Context, id string) (*Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: offer %s", ErrNotFound, id)
	}
	c := *o
	return &c, nil
}

func (m *MemStore) OffersByTask(_ context.Context, taskID string) ([]Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Offer
	for _, o := range m.offers {
		if o.TaskID == taskID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) AcceptOffer(_ context.Context, o *Offer) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[o.TaskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, o.TaskID)
	}
	// Status guard under the lock is what makes acceptance exclusive.
	if t.Status != TaskOpen {
		return nil, fmt.Errorf("%w: task is %s", ErrAlreadyAssigned, t.Status)
	}
	t.Status = TaskActive
	t.FixerID = o.FixerID
	t.Price = o.Price
	t.UpdatedAt = time.Now()
	for _, sibling := range m.offers {
		if sibling.TaskID != o.TaskID {
			continue
		}
		if sibling.ID == o.ID {
			sibling.Status = OfferAccepted
		} else {
			sibling.Status = OfferRejected
		}
	}
	return copyTask(t), nil
}

func (m *MemStore) SetCheckIn(_ context.Context, taskID string, at time.Time) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if t.Status != TaskActive {
		return nil, fmt.Errorf("%w: task is %s", ErrInvalidState, t.Status)
	}
	t.CheckinAt = &at
	t.UpdatedAt = at
	return copyTask(t), nil
}

func (m *MemStore) SetCheckOut(_ context.Context, taskID string, at time.Time) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if t.Status != TaskActive || t.CheckinAt == nil {
		return nil, fmt.Errorf("%w: task is %s", ErrInvalidState, t.Status)
	}
	t.Status = TaskDone
	t.CheckoutAt = &at
	t.UpdatedAt = at
	return copyTask(t), nil
}

func (m *MemStore) ApplySettlement(_ context.Context, s Settlement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.settlements[s.TaskID]; done {
		return false, nil
	}
	c := s
	m.settlements[s.TaskID] = &c
	w, ok := m.wallets[s.FixerID]
	if !ok {
		w = &Wallet{UserID: s.FixerID}
		m.wallets[s.FixerID] = w
	}
	w.Balance += s.Payout
	w.TotalEarned += s.Payout
	return true, nil
}

func (m *MemStore) SettlementByTask(_ context.Context, taskID string) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: settlement for task %s", ErrNotFound, taskID)
	}
	c := *s
	return &c, nil
}

func (m *MemStore) UnsettledTasks(_ context.Context) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if t.Status != TaskDone {
			continue
		}
		if _, settled := m.settlements[t.ID]; !settled {
			out = append(out, *copyTask(t))
		}
	}
	return out, nil
}

// WalletByUser reads the in-memory ledger for a user, zeroed if untouched.
func (m *MemStore) WalletByUser(userID string) Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[userID]; ok {
		return *w
	}
	return Wallet{UserID: userID}
}

func sortTasksNewestFirst(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
}
