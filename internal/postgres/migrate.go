package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate provisions the full schema once at startup. The COD table gets its
// order_status column here, upfront, instead of being altered lazily on the
// first status write.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			id BIGSERIAL PRIMARY KEY,
			item_id TEXT NOT NULL UNIQUE,
			quantity INT NOT NULL CHECK (quantity >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS paymentondelivery (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			products JSONB NOT NULL DEFAULT '[]',
			transaction_id TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT 'cod',
			payment_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			product_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			delivery_charge NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount NUMERIC(12,2) NOT NULL DEFAULT 0,
			applied_promo TEXT,
			order_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			order_status TEXT NOT NULL DEFAULT 'pending',
			UNIQUE (transaction_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS onlinepayment (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			products JSONB NOT NULL DEFAULT '[]',
			transaction_id TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT 'online',
			payment_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			product_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			delivery_charge NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount NUMERIC(12,2) NOT NULL DEFAULT 0,
			applied_promo TEXT,
			order_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			payment_gateway TEXT NOT NULL DEFAULT '',
			gateway_transaction_id TEXT NOT NULL DEFAULT '',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			UNIQUE (transaction_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS creditcardpayment (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			products JSONB NOT NULL DEFAULT '[]',
			transaction_id TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT 'card',
			payment_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			product_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			delivery_charge NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount NUMERIC(12,2) NOT NULL DEFAULT 0,
			applied_promo TEXT,
			order_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			card_last_four TEXT NOT NULL DEFAULT '',
			card_type TEXT NOT NULL DEFAULT '',
			payment_processor TEXT NOT NULL DEFAULT '',
			processor_transaction_id TEXT NOT NULL DEFAULT '',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			UNIQUE (transaction_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pod_user_date ON paymentondelivery (user_id, order_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_online_user_date ON onlinepayment (user_id, order_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_card_user_date ON creditcardpayment (user_id, order_date DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
