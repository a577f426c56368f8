package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/geo"
)

var (
	client *asynq.Client
	server *asynq.Server

	// reconciler retries settlement for done-but-unsettled tasks. Set from
	// main to avoid a static cycle with the lifecycle engine.
	reconciler func(ctx context.Context) (int, error)
)

// SetReconciler registers the settlement retry hook.
func SetReconciler(fn func(ctx context.Context) (int, error)) {
	reconciler = fn
}

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOTPSMS, handleOTPSMS)
	mux.HandleFunc(TaskFanoutNearbyFixers, handleFanout)
	mux.HandleFunc(TaskSettlementReconcile, handleSettlementReconcile)
	mux.HandleFunc(TaskMessageAlert, handleMessageAlert)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"sms":        10,
			"fanout":     5,
			"settlement": 5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			slog.Error("asynq server stopped", "err", err)
		}
	}()

	slog.Info("asynq initialized", "addr", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func handleOTPSMS(_ context.Context, t *asynq.Task) error {
	var p OTPSMSPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	return SendSMS(p.Phone, fmt.Sprintf("Gelsin giris kodunuz: %s", p.Code))
}

// handleFanout notifies every online fixer within radar range of a fresh
// open task. The distance filter runs in Go over the small online set.
func handleFanout(ctx context.Context, t *asynq.Task) error {
	var p FanoutPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	rows, err := db.Conn.Query(ctx, `
		SELECT id, latitude, longitude FROM users
		WHERE role = 'fixer' AND is_online = TRUE`)
	if err != nil {
		return fmt.Errorf("load online fixers: %w", err)
	}
	defer rows.Close()

	var nearby []string
	for rows.Next() {
		var id string
		var lat, lng float64
		if err := rows.Scan(&id, &lat, &lng); err != nil {
			return err
		}
		if geo.WithinRadius(p.Latitude, p.Longitude, lat, lng, geo.DefaultRadiusMeters) {
			nearby = append(nearby, id)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	title := "Yakininda yeni is: " + p.Title
	if p.IsUrgent {
		title = "ACIL — " + title
	}
	for _, fixerID := range nearby {
		ref := p.TaskID
		if err := CreateNotification(fixerID, "task:new", title, p.Category, &ref); err != nil {
			slog.Warn("fanout notification failed", "fixer_id", fixerID, "err", err)
		}
	}
	slog.Info("task fan-out delivered", "task_id", p.TaskID, "fixers", len(nearby))
	return nil
}

// handleSettlementReconcile re-runs settlement; returning an error lets
// asynq retry with backoff until the backlog drains.
func handleSettlementReconcile(ctx context.Context, t *asynq.Task) error {
	var p ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if reconciler == nil {
		return fmt.Errorf("no reconciler registered")
	}
	settled, err := reconciler(ctx)
	if err != nil {
		return fmt.Errorf("reconcile settlements: %w", err)
	}
	slog.Info("settlement reconciliation ran", "trigger_task", p.TaskID, "settled", settled)
	return nil
}

func handleMessageAlert(_ context.Context, t *asynq.Task) error {
	var p MessageAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	ref := p.TaskID
	return CreateNotification(p.ReceiverID, "message:new", "Yeni mesaj", p.Preview, &ref)
}
