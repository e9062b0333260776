package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("item not found in inventory")

// SeedItem is one entry of an initialization payload, keyed the way the
// storefront catalog exports items.
type SeedItem struct {
	ItemID    string `json:"_id"`
	Available int    `json:"available"`
}

type Line struct {
	ItemID   string `json:"product_id"`
	Quantity int    `json:"quantity"`
}

type Reservation struct {
	ItemID           string `json:"itemId"`
	PreviousQuantity int    `json:"previousQuantity"`
	ReducedBy        int    `json:"reducedBy"`
	NewQuantity      int    `json:"newQuantity"`
}

type SeededItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type RestockedItem struct {
	ItemID           string `json:"itemId"`
	PreviousQuantity int    `json:"previousQuantity"`
	NewQuantity      int    `json:"newQuantity"`
}

type InitResult struct {
	Initialized    []SeededItem    `json:"initializedItems"`
	Restocked      []RestockedItem `json:"updatedItems"`
	TotalProcessed int             `json:"totalProcessed"`
}

type Store struct{ DB *pgxpool.Pool }

// Initialize seeds stock levels in one transaction. Absent items are
// inserted; existing rows are overwritten only while their quantity is at or
// below zero (restock-on-depletion), so repeated seeding never clobbers live
// stock. Entries without an item id are skipped silently.
func (s *Store) Initialize(ctx context.Context, items []SeedItem) (*InitResult, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res := &InitResult{
		Initialized: []SeededItem{},
		Restocked:   []RestockedItem{},
	}
	for _, it := range items {
		if it.ItemID == "" {
			continue
		}

		var current int
		exists := true
		err := tx.QueryRow(ctx, `SELECT quantity FROM inventory WHERE item_id = $1 FOR UPDATE`, it.ItemID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			exists, err = false, nil
		}
		if err != nil {
			return nil, err
		}

		switch seedDecision(exists, current) {
		case seedInsert:
			if _, err := tx.Exec(ctx,
				`INSERT INTO inventory (item_id, quantity) VALUES ($1, $2)`,
				it.ItemID, it.Available); err != nil {
				return nil, err
			}
			res.Initialized = append(res.Initialized, SeededItem{ItemID: it.ItemID, Quantity: it.Available})
		case seedRestock:
			if _, err := tx.Exec(ctx,
				`UPDATE inventory SET quantity = $1, updated_at = now() WHERE item_id = $2`,
				it.Available, it.ItemID); err != nil {
				return nil, err
			}
			res.Restocked = append(res.Restocked, RestockedItem{
				ItemID:           it.ItemID,
				PreviousQuantity: current,
				NewQuantity:      it.Available,
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	res.TotalProcessed = len(res.Initialized) + len(res.Restocked)
	return res, nil
}

func (s *Store) Get(ctx context.Context, itemID string) (int, error) {
	var qty int
	err := s.DB.QueryRow(ctx, `SELECT quantity FROM inventory WHERE item_id = $1`, itemID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// GetAll returns the full itemID -> quantity mapping plus the item ids in
// ascending order.
func (s *Store) GetAll(ctx context.Context) (map[string]int, []string, error) {
	rows, err := s.DB.Query(ctx, `SELECT item_id, quantity FROM inventory ORDER BY item_id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	var ids []string
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, nil, err
		}
		out[id] = qty
		ids = append(ids, id)
	}
	return out, ids, rows.Err()
}

// Set upserts an absolute quantity. Returns whether a new row was created;
// xmax = 0 distinguishes a fresh insert from a conflict-update.
func (s *Store) Set(ctx context.Context, itemID string, quantity int) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("quantity cannot be negative: %d", quantity)
	}

	var created bool
	err := s.DB.QueryRow(ctx, `
		INSERT INTO inventory (item_id, quantity) VALUES ($1, $2)
		ON CONFLICT (item_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		RETURNING (xmax = 0)`, itemID, quantity).Scan(&created)
	return created, err
}

// Reserve decrements stock for every line in one transaction. Each row is
// locked FOR UPDATE before the read, so concurrent reservations on the same
// item serialize and never race past zero; the decrement clamps at zero.
// Lines with non-positive quantity are skipped. A line referencing an absent
// item fails the whole batch and nothing is committed.
func (s *Store) Reserve(ctx context.Context, lines []Line) ([]Reservation, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := []Reservation{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}

		var current int
		err := tx.QueryRow(ctx, `SELECT quantity FROM inventory WHERE item_id = $1 FOR UPDATE`, l.ItemID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", l.ItemID, ErrItemNotFound)
		}
		if err != nil {
			return nil, err
		}

		newQty := clamp(current, l.Quantity)
		if _, err := tx.Exec(ctx,
			`UPDATE inventory SET quantity = $1, updated_at = now() WHERE item_id = $2`,
			newQty, l.ItemID); err != nil {
			return nil, err
		}

		out = append(out, Reservation{
			ItemID:           l.ItemID,
			PreviousQuantity: current,
			ReducedBy:        l.Quantity,
			NewQuantity:      newQty,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// clamp floors the decrement at zero: stock never goes negative even when the
// requested quantity exceeds what is on hand.
func clamp(current, take int) int {
	if take >= current {
		return 0
	}
	return current - take
}

type seedAction int

const (
	seedInsert seedAction = iota
	seedRestock
	seedSkip
)

// seedDecision applies the restock-on-depletion policy to one seed entry:
// absent items are inserted, depleted rows are overwritten, rows with live
// stock are left untouched.
func seedDecision(exists bool, current int) seedAction {
	switch {
	case !exists:
		return seedInsert
	case current <= 0:
		return seedRestock
	default:
		return seedSkip
	}
}
