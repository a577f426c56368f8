package lifecycle

import "time"

// TaskStatus is the canonical task lifecycle state.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskActive    TaskStatus = "active"
	TaskDone      TaskStatus = "done"
	TaskCancelled TaskStatus = "cancelled" // reserved, no in-app transition
)

// OfferStatus tracks a fixer's bid on a task.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Category is one of the seven fixed trade categories.
type Category string

const (
	CategoryTesisat  Category = "tesisat"
	CategoryElektrik Category = "elektrik"
	CategoryBoya     Category = "boya"
	CategoryMontaj   Category = "montaj"
	CategoryMarangoz Category = "marangoz"
	CategoryTemizlik Category = "temizlik"
	CategoryDiger    Category = "diger"
)

// Categories lists every valid trade category.
var Categories = []Category{
	CategoryTesisat, CategoryElektrik, CategoryBoya, CategoryMontaj,
	CategoryMarangoz, CategoryTemizlik, CategoryDiger,
}

// ValidCategory reports whether c is one of the seven trade categories.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// MaxTaskPhotos caps photo references per task.
const MaxTaskPhotos = 4

// Task is a single repair job request.
// FixerID is empty until an offer is accepted; Price is 0 until then.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	Status      TaskStatus `json:"status"`
	IsUrgent    bool       `json:"is_urgent"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Address     string     `json:"address,omitempty"`
	PhotoURLs   []string   `json:"photo_urls"`
	Price       int64      `json:"price,omitempty"`
	QRToken     string     `json:"qr_token"`
	CheckinAt   *time.Time `json:"checkin_at,omitempty"`
	CheckoutAt  *time.Time `json:"checkout_at,omitempty"`
	CustomerID  string     `json:"customer_id"`
	FixerID     string     `json:"fixer_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Offer is a fixer's bid against an open task. Never deleted.
type Offer struct {
	ID         string      `json:"id"`
	TaskID     string      `json:"task_id"`
	FixerID    string      `json:"fixer_id"`
	Price      int64       `json:"price"`
	ETAMinutes int         `json:"eta_minutes"`
	Note       string      `json:"note,omitempty"`
	Status     OfferStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Wallet is the per-user ledger. All fields stay non-negative.
type Wallet struct {
	UserID      string `json:"user_id"`
	Balance     int64  `json:"balance"`
	EscrowHeld  int64  `json:"escrow_held"`
	TotalEarned int64  `json:"total_earned"`
}

// CommissionPercent is the platform's cut of a settled task price.
const CommissionPercent = 10

// Settlement is the escrow release for one completed task.
// Keyed by TaskID; applying it twice must be a no-op.
type Settlement struct {
	TaskID     string    `json:"task_id"`
	FixerID    string    `json:"fixer_id"`
	Amount     int64     `json:"amount"`
	Payout     int64     `json:"payout"`
	Commission int64     `json:"commission"`
	CreatedAt  time.Time `json:"created_at"`
}

// ComputeSettlement splits a task's agreed price into fixer payout and
// platform commission.
func ComputeSettlement(taskID, fixerID string, price int64, at time.Time) Settlement {
	commission := price * CommissionPercent / 100
	return Settlement{
		TaskID:     taskID,
		FixerID:    fixerID,
		Amount:     price,
		Payout:     price - commission,
		Commission: commission,
		CreatedAt:  at,
	}
}
