package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema.
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		slog.Error("unable to connect to database", "err", err)
		os.Exit(1)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		slog.Error("unable to ping database", "err", err)
		os.Exit(1)
	}

	slog.Info("connected to Postgres")

	ensureUsersTable()
	ensureOTPTable()
	ensureTasksTable()
	ensureOffersTable()
	ensureWalletsTable()
	ensureTransactionsTable()
	ensureSettlementsTable()
	ensureMessagesTable()
	ensureReviewsTable()
	ensureNotificationsTable()
}

func exec(label, sql string) {
	if _, err := Conn.Exec(context.Background(), sql); err != nil {
		slog.Error("schema migration failed", "step", label, "err", err)
	}
}

// ensureUsersTable creates users keyed by phone, role set once at onboarding.
func ensureUsersTable() {
	exec("users", `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			phone TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '' CHECK (role IN ('', 'customer', 'fixer', 'admin')),
			avatar_url TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			skills TEXT[] NOT NULL DEFAULT '{}',
			avg_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_jobs INTEGER NOT NULL DEFAULT 0,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_online BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
}

// ensureOTPTable holds bcrypt-hashed login codes, single use with expiry.
func ensureOTPTable() {
	exec("otp_codes", `
		CREATE TABLE IF NOT EXISTS otp_codes (
			phone TEXT PRIMARY KEY,
			code_hash TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
}

func ensureTasksTable() {
	exec("tasks", `
		CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL CHECK (category IN
				('tesisat','elektrik','boya','montaj','marangoz','temizlik','diger')),
			status TEXT NOT NULL DEFAULT 'open' CHECK (status IN
				('open','active','done','cancelled')),
			is_urgent BOOLEAN NOT NULL DEFAULT FALSE,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			photo_urls TEXT[] NOT NULL DEFAULT '{}',
			price BIGINT NOT NULL DEFAULT 0,
			qr_token TEXT NOT NULL,
			checkin_at TIMESTAMPTZ NULL,
			checkout_at TIMESTAMPTZ NULL,
			customer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			fixer_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	exec("tasks_indexes", `
		CREATE INDEX IF NOT EXISTS idx_tasks_customer ON tasks(customer_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_fixer ON tasks(fixer_id) WHERE fixer_id <> '';
		CREATE INDEX IF NOT EXISTS idx_tasks_open ON tasks(status) WHERE status = 'open'`)
}

func ensureOffersTable() {
	exec("offers", `
		CREATE TABLE IF NOT EXISTS offers (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			fixer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			price BIGINT NOT NULL CHECK (price > 0),
			eta_minutes INTEGER NOT NULL CHECK (eta_minutes > 0),
			note TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
				('pending','accepted','rejected')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (task_id, fixer_id)
		)`)
	exec("offers_indexes",
		`CREATE INDEX IF NOT EXISTS idx_offers_task ON offers(task_id)`)
}

func ensureWalletsTable() {
	exec("wallets", `
		CREATE TABLE IF NOT EXISTS wallets (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			escrow_held BIGINT NOT NULL DEFAULT 0 CHECK (escrow_held >= 0),
			total_earned BIGINT NOT NULL DEFAULT 0 CHECK (total_earned >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
}

func ensureTransactionsTable() {
	exec("transactions", `
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('payout','withdrawal')),
			amount BIGINT NOT NULL,
			status TEXT NOT NULL,
			reference UUID NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	exec("transactions_indexes",
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at)`)
}

// ensureSettlementsTable keys escrow release by task id; the primary key is
// what makes settlement exactly-once.
func ensureSettlementsTable() {
	exec("settlements", `
		CREATE TABLE IF NOT EXISTS settlements (
			task_id UUID PRIMARY KEY REFERENCES tasks(id) ON DELETE CASCADE,
			fixer_id UUID NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			payout BIGINT NOT NULL,
			commission BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
}

func ensureMessagesTable() {
	exec("messages", `
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			body TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	exec("messages_indexes",
		`CREATE INDEX IF NOT EXISTS idx_messages_task ON messages(task_id, created_at)`)
}

func ensureReviewsTable() {
	exec("reviews", `
		CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL UNIQUE REFERENCES tasks(id) ON DELETE CASCADE,
			reviewer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			fixer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
}

func ensureNotificationsTable() {
	exec("notifications", `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			reference UUID NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL`)
}
