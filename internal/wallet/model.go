package wallet

import "time"

// Wallet is the per-user ledger. Balance and total_earned move only on
// settlement payout and withdrawal; escrow_held is informational pending
// backend reconciliation.
type Wallet struct {
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	EscrowHeld  int64     `json:"escrow_held"`
	TotalEarned int64     `json:"total_earned"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transaction is one ledger movement: a settlement payout or a withdrawal.
type Transaction struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Reference *string   `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
