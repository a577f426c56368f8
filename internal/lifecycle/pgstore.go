package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on Postgres. Transition guards live in the SQL
// predicates (UPDATE ... WHERE status = ...), so concurrent writers resolve
// in the database, not client-side.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const taskColumns = `id, title, description, category, status, is_urgent,
	latitude, longitude, address, photo_urls, price, qr_token,
	checkin_at, checkout_at, customer_id, fixer_id, created_at, updated_at`

// haversine distance in meters between ($1,$2) and each task row.
const distanceExpr = `2 * 6371000 * asin(sqrt(
	pow(sin(radians(latitude - $1) / 2), 2) +
	cos(radians($1)) * cos(radians(latitude)) *
	pow(sin(radians(longitude - $2) / 2), 2)))`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Status, &t.IsUrgent,
		&t.Latitude, &t.Longitude, &t.Address, &t.PhotoURLs, &t.Price, &t.QRToken,
		&t.CheckinAt, &t.CheckoutAt, &t.CustomerID, &t.FixerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) CreateTask(ctx context.Context, t *Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, category, status, is_urgent,
			latitude, longitude, address, photo_urls, price, qr_token,
			customer_id, fixer_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,'',$14,$14)`,
		t.ID, t.Title, t.Description, t.Category, t.Status, t.IsUrgent,
		t.Latitude, t.Longitude, t.Address, t.PhotoURLs, t.Price, t.QRToken,
		t.CustomerID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PGStore) TaskByID(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}
	return t, nil
}

func (s *PGStore) tasksWhere(ctx context.Context, clause string, args ...any) ([]Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE `+clause+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PGStore) TasksByCustomer(ctx context.Context, customerID string) ([]Task, error) {
	return s.tasksWhere(ctx, `customer_id = $1`, customerID)
}

func (s *PGStore) TasksByFixer(ctx context.Context, fixerID string) ([]Task, error) {
	return s.tasksWhere(ctx, `fixer_id = $1`, fixerID)
}

func (s *PGStore) SearchNearby(ctx context.Context, f NearbyFilter) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = 'open'
		  AND ($4 = '' OR category = $4)
		  AND `+distanceExpr+` <= $3
		ORDER BY `+distanceExpr+` ASC`,
		f.Latitude, f.Longitude, f.RadiusMeters, string(f.Category),
	)
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PGStore) AddTaskPhoto(ctx context.Context, taskID, url string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET photo_urls = array_append(photo_urls, $2), updated_at = NOW()
		WHERE id = $1 AND cardinality(photo_urls) < $3
		RETURNING `+taskColumns, taskID, url, MaxTaskPhotos))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, lookupErr := s.TaskByID(ctx, taskID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("%w: at most %d photos", ErrValidation, MaxTaskPhotos)
	}
	if err != nil {
		return nil, fmt.Errorf("add photo: %w", err)
	}
	return t, nil
}

func (s *PGStore) CreateOffer(ctx context.Context, o *Offer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO offers (id, task_id, fixer_id, price, eta_minutes, note, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.TaskID, o.FixerID, o.Price, o.ETAMinutes, o.Note, o.Status, o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: fixer already has an offer on this task", ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

func (s *PGStore) OfferByID(ctx context.Context, id string) (*Offer, error) {
	var o Offer
	err := s.pool.QueryRow(ctx, `
		SELECT id, task_id, fixer_id, price, eta_minutes, note, status, created_at
		FROM offers WHERE id = $1`, id).
		Scan(&o.ID, &o.TaskID, &o.FixerID, &o.Price, &o.ETAMinutes, &o.Note, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: offer %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch offer: %w", err)
	}
	return &o, nil
}

func (s *PGStore) OffersByTask(ctx context.Context, taskID string) ([]Offer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, fixer_id, price, eta_minutes, note, status, created_at
		FROM offers WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	var out []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.TaskID, &o.FixerID, &o.Price, &o.ETAMinutes, &o.Note, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// AcceptOffer is the exclusive transition: the status predicate on the task
// update makes exactly one of N racing acceptances win.
func (s *PGStore) AcceptOffer(ctx context.Context, o *Offer) (*Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks
		SET status = 'active', fixer_id = $2, price = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING `+taskColumns, o.TaskID, o.FixerID, o.Price))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, lookupErr := s.TaskByID(ctx, o.TaskID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("%w: task %s", ErrAlreadyAssigned, o.TaskID)
	}
	if err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'accepted' WHERE id = $1`, o.ID); err != nil {
		return nil, fmt.Errorf("accept offer: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'rejected' WHERE task_id = $1 AND id <> $2`,
		o.TaskID, o.ID); err != nil {
		return nil, fmt.Errorf("reject sibling offers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept tx: %w", err)
	}
	return t, nil
}

func (s *PGStore) SetCheckIn(ctx context.Context, taskID string, at time.Time) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks SET checkin_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING `+taskColumns, taskID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s is not active", ErrInvalidState, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("check-in: %w", err)
	}
	return t, nil
}

func (s *PGStore) SetCheckOut(ctx context.Context, taskID string, at time.Time) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks SET status = 'done', checkout_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'active' AND checkin_at IS NOT NULL
		RETURNING `+taskColumns, taskID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s is not checked-in active", ErrInvalidState, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("check-out: %w", err)
	}
	return t, nil
}

// ApplySettlement releases escrow exactly once per task. The settlements
// insert with ON CONFLICT DO NOTHING is the idempotence key: only the
// transaction that wins the insert touches wallets.
func (s *PGStore) ApplySettlement(ctx context.Context, set Settlement) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin settlement tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO settlements (task_id, fixer_id, amount, payout, commission, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (task_id) DO NOTHING`,
		set.TaskID, set.FixerID, set.Amount, set.Payout, set.Commission, set.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already settled, nothing to pay out.
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance + $1, total_earned = total_earned + $1
		WHERE user_id = $2`,
		set.Payout, set.FixerID); err != nil {
		return false, fmt.Errorf("credit fixer wallet: %w", err)
	}

	// Release the customer's informational escrow hold, never below zero.
	var customerID string
	if err := tx.QueryRow(ctx,
		`SELECT customer_id FROM tasks WHERE id = $1`, set.TaskID).Scan(&customerID); err == nil {
		_, _ = tx.Exec(ctx, `
			UPDATE wallets
			SET escrow_held = escrow_held - $1
			WHERE user_id = $2 AND escrow_held >= $1`,
			set.Amount, customerID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, status, reference, created_at)
		VALUES (gen_random_uuid(), $1, 'payout', $2, 'credited', $3, $4)`,
		set.FixerID, set.Payout, set.TaskID, set.CreatedAt); err != nil {
		return false, fmt.Errorf("record payout transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit settlement tx: %w", err)
	}
	return true, nil
}

func (s *PGStore) SettlementByTask(ctx context.Context, taskID string) (*Settlement, error) {
	var set Settlement
	err := s.pool.QueryRow(ctx, `
		SELECT task_id, fixer_id, amount, payout, commission, created_at
		FROM settlements WHERE task_id = $1`, taskID).
		Scan(&set.TaskID, &set.FixerID, &set.Amount, &set.Payout, &set.Commission, &set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: settlement for task %s", ErrNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch settlement: %w", err)
	}
	return &set, nil
}

func (s *PGStore) UnsettledTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = 'done'
		  AND NOT EXISTS (SELECT 1 FROM settlements s WHERE s.task_id = tasks.id)
		ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list unsettled tasks: %w", err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
