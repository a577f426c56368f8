package alerts

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

var errQueueUnavailable = errors.New("alerts: queue client not initialized")

func enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if client == nil {
		return errQueueUnavailable
	}
	_, err := client.Enqueue(task, opts...)
	return err
}

// EnqueueOTPSMS schedules delivery of a login code.
func EnqueueOTPSMS(phone, code string) error {
	payload := OTPSMSPayload{Phone: phone, Code: code, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	return enqueue(asynq.NewTask(TaskOTPSMS, b), asynq.Queue("sms"))
}

// EnqueueTaskFanout announces a new open task to nearby fixers. Urgent
// tasks go out immediately; normal ones after the grace delay.
func EnqueueTaskFanout(p FanoutPayload) error {
	delay := NormalNotifyDelay
	if p.IsUrgent {
		delay = UrgentNotifyDelay
	}
	b, _ := json.Marshal(p)
	return enqueue(asynq.NewTask(TaskFanoutNearbyFixers, b), asynq.Queue("fanout"), asynq.ProcessIn(delay))
}

// EnqueueSettlementReconcile schedules a settlement retry after a checkout
// whose escrow release failed. Asynq's retry backoff keeps re-running it
// until the task settles.
func EnqueueSettlementReconcile(taskID string) error {
	b, _ := json.Marshal(ReconcilePayload{TaskID: taskID})
	return enqueue(asynq.NewTask(TaskSettlementReconcile, b), asynq.Queue("settlement"), asynq.MaxRetry(10))
}

// EnqueueMessageAlert notifies the receiver of a new chat message.
func EnqueueMessageAlert(taskID, senderID, receiverID, preview string) error {
	payload := MessageAlertPayload{
		TaskID:     taskID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Preview:    preview,
		SentAt:     time.Now(),
	}
	b, _ := json.Marshal(payload)
	return enqueue(asynq.NewTask(TaskMessageAlert, b), asynq.Queue("fanout"))
}
