package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidStatus = errors.New("invalid status")

const defaultLimit = 50

// Repo reads and mutates orders across the three payment tables behind one
// interface. Table and status-column names come from the Sources allow-list.
type Repo struct{ DB *pgxpool.Pool }

const sharedCols = `id, user_id, customer_name, phone, email, country, city, address, products,
	transaction_id, payment_method, payment_amount, product_amount,
	delivery_charge, discount, applied_promo, order_date`

func selectCols(src Source) string {
	switch src {
	case SourceOnline:
		return sharedCols + `, payment_gateway, gateway_transaction_id, payment_status`
	case SourceCard:
		return sharedCols + `, card_last_four, card_type, payment_processor, processor_transaction_id, payment_status`
	default:
		return sharedCols + `, COALESCE(order_status, 'pending')`
	}
}

func statusColumn(src Source) string {
	if src == SourceCOD {
		return "order_status"
	}
	return "payment_status"
}

type scanner interface{ Scan(dest ...any) error }

func scanOrder(s scanner, src Source) (Order, error) {
	o := Order{Source: src}
	dest := []any{
		&o.ID, &o.UserID, &o.CustomerName, &o.Phone, &o.Email, &o.Country,
		&o.City, &o.Address, &o.Products, &o.TransactionID, &o.PaymentMethod,
		&o.PaymentAmount, &o.ProductAmount, &o.DeliveryCharge, &o.Discount,
		&o.AppliedPromo, &o.OrderDate,
	}
	switch src {
	case SourceOnline:
		dest = append(dest, &o.PaymentGateway, &o.GatewayTransactionID)
	case SourceCard:
		dest = append(dest, &o.CardLastFour, &o.CardType, &o.PaymentProcessor, &o.ProcessorTransactionID)
	}
	dest = append(dest, &o.Status)
	return o, s.Scan(dest...)
}

func (r *Repo) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.DB.QueryRow(ctx, `SELECT 1 FROM users WHERE id=$1`, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListOrders aggregates a user's order history across all three sources.
// Each source contributes up to offset+limit of its newest rows (no
// per-source offset), so the merged window is exact regardless of how rows
// are spread across sources.
func (r *Repo) ListOrders(ctx context.Context, userID string, limit, offset int, status Status) (*History, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	ok, err := r.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	var all []Order
	for _, src := range Sources {
		rows, err := r.listSource(ctx, src, userID, status, offset+limit)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	total := 0
	for _, src := range Sources {
		n, err := r.countSource(ctx, src, userID, status)
		if err != nil {
			return nil, err
		}
		total += n
	}

	return mergeHistory(all, limit, offset, total, time.Now().UTC()), nil
}

func (r *Repo) listSource(ctx context.Context, src Source, userID string, status Status, fetch int) ([]Order, error) {
	q := `SELECT ` + selectCols(src) + ` FROM ` + string(src) + ` WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		q += ` AND ` + statusColumn(src) + ` = $2`
		args = append(args, string(status))
	}
	q += fmt.Sprintf(` ORDER BY order_date DESC LIMIT $%d`, len(args)+1)
	args = append(args, fetch)

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows, src)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) countSource(ctx context.Context, src Source, userID string, status Status) (int, error) {
	q := `SELECT COUNT(*) FROM ` + string(src) + ` WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		q += ` AND ` + statusColumn(src) + ` = $2`
		args = append(args, string(status))
	}
	var n int
	err := r.DB.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}

// GetOrder probes the sources in fixed order and returns the first match,
// derived fields filled in.
func (r *Repo) GetOrder(ctx context.Context, transactionID, userID string) (*Order, error) {
	for _, src := range Sources {
		q := `SELECT ` + selectCols(src) + ` FROM ` + string(src) + ` WHERE transaction_id = $1 AND user_id = $2`
		o, err := scanOrder(r.DB.QueryRow(ctx, q, transactionID, userID), src)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		finalize(&o, time.Now().UTC())
		return &o, nil
	}
	return nil, ErrOrderNotFound
}

func (r *Repo) GetStatus(ctx context.Context, transactionID, userID string) (Status, error) {
	for _, src := range Sources {
		col := statusColumn(src)
		if src == SourceCOD {
			col = `COALESCE(order_status, 'pending')`
		}
		q := `SELECT ` + col + ` FROM ` + string(src) + ` WHERE transaction_id = $1 AND user_id = $2`
		var s Status
		err := r.DB.QueryRow(ctx, q, transactionID, userID).Scan(&s)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", err
		}
		return s, nil
	}
	return "", ErrOrderNotFound
}

// SetStatus applies a status to whichever source holds the order: online and
// card are tried first, COD is the fallback. One transaction for the whole
// call; no row anywhere rolls back and reports not-found. Re-applying the
// current status is a successful no-op update.
func (r *Repo) SetStatus(ctx context.Context, transactionID, userID string, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated := false
	for _, src := range []Source{SourceOnline, SourceCard} {
		ct, err := tx.Exec(ctx,
			`UPDATE `+string(src)+` SET payment_status = $1 WHERE transaction_id = $2 AND user_id = $3`,
			string(status), transactionID, userID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() > 0 {
			updated = true
			break
		}
	}

	if !updated {
		ct, err := tx.Exec(ctx,
			`UPDATE paymentondelivery SET order_status = $1 WHERE transaction_id = $2 AND user_id = $3`,
			string(status), transactionID, userID)
		if err != nil {
			return err
		}
		updated = ct.RowsAffected() > 0
	}

	if !updated {
		return ErrOrderNotFound
	}
	return tx.Commit(ctx)
}

// Cancel checks eligibility against the current status and order date before
// transitioning to cancelled. Ineligible orders are left untouched.
func (r *Repo) Cancel(ctx context.Context, transactionID, userID string) error {
	o, err := r.GetOrder(ctx, transactionID, userID)
	if err != nil {
		return err
	}
	if !CanCancel(o.Status, o.OrderDate, time.Now().UTC()) {
		return ErrNotCancellable
	}
	return r.SetStatus(ctx, transactionID, userID, StatusCancelled)
}
