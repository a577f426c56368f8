package alerts

import "time"

// Task type constants
const (
	TaskOTPSMS              = "sms:otp"
	TaskFanoutNearbyFixers  = "task:notify_fixers"
	TaskSettlementReconcile = "settlement:reconcile"
	TaskMessageAlert        = "message:new"
)

// Fan-out timing: urgent tasks notify fixers immediately, normal ones wait
// so the customer can still edit or cancel.
const (
	UrgentNotifyDelay = 0
	NormalNotifyDelay = 2 * time.Minute
)

// OTPSMSPayload carries a login code to the SMS queue.
type OTPSMSPayload struct {
	Phone  string    `json:"phone"`
	Code   string    `json:"code"`
	SentAt time.Time `json:"sent_at"`
}

// FanoutPayload announces a new open task to nearby online fixers.
type FanoutPayload struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsUrgent  bool      `json:"is_urgent"`
	CreatedAt time.Time `json:"created_at"`
}

// ReconcilePayload retries escrow settlement for a done-but-unsettled task.
type ReconcilePayload struct {
	TaskID string `json:"task_id"`
}

// MessageAlertPayload notifies the receiver of a new chat message.
type MessageAlertPayload struct {
	TaskID     string    `json:"task_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Preview    string    `json:"preview"`
	SentAt     time.Time `json:"sent_at"`
}
