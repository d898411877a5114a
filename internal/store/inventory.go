package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

type InventoryStore struct {
	db DBTX
}

func NewInventoryStore(db DBTX) *InventoryStore {
	return &InventoryStore{db: db}
}

func scanInventoryItem(row scanner) (*model.InventoryItem, error) {
	var item model.InventoryItem
	var expiresOn, notes sql.NullString
	var sourceID sql.NullInt64

	err := row.Scan(
		&item.ID, &item.IngredientID, &item.Name, &item.Count,
		&item.PurchasedAt, &expiresOn, &notes, &sourceID,
	)
	if err != nil {
		return nil, err
	}
	item.ExpiresOn = stringPtr(expiresOn)
	item.Notes = stringPtr(notes)
	if sourceID.Valid {
		item.SourceListItemID = &sourceID.Int64
	}
	return &item, nil
}

const inventorySelect = `SELECT ii.id, ii.ingredient_id, i.name, ii.count, ii.purchased_at,
ii.expires_on, ii.notes, ii.source_list_item_id
FROM inventory_items ii
JOIN ingredients i ON i.id = ii.ingredient_id`

const ownedInventoryItem = `ingredient_id IN (SELECT id FROM ingredients WHERE person_id = ?)`

// NewInventoryItem holds the columns written when a pantry row is first created.
type NewInventoryItem struct {
	IngredientID     int64
	Count            int
	ExpiresOn        *string
	Notes            *string
	SourceListItemID *int64
}

func (s *InventoryStore) Create(ctx context.Context, in NewInventoryItem) (int64, error) {
	var sourceID sql.NullInt64
	if in.SourceListItemID != nil {
		sourceID = sql.NullInt64{Int64: *in.SourceListItemID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory_items (ingredient_id, count, expires_on, notes, source_list_item_id) VALUES (?, ?, ?, ?, ?)`,
		in.IngredientID, in.Count, nullString(in.ExpiresOn), nullString(in.Notes), sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert inventory item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FindMatch returns the lowest-id live row for the ingredient whose expiration
// equals expiresOn. A nil expiresOn matches only rows without an expiration.
func (s *InventoryStore) FindMatch(ctx context.Context, ingredientID int64, expiresOn *string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM inventory_items
WHERE ingredient_id = ? AND is_deleted = 0 AND expires_on IS ?
ORDER BY id ASC LIMIT 1`,
		ingredientID, nullString(expiresOn),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find inventory match: %w", err)
	}
	return id, true, nil
}

// AddCount increments a live row's count in place.
func (s *InventoryStore) AddCount(ctx context.Context, id int64, delta int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET count = count + ? WHERE id = ? AND is_deleted = 0`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("add inventory count: %w", err)
	}
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("add inventory count: item %d is not live", id)
	}
	return nil
}

// GetForOwner returns a live pantry row owned by the person, or nil.
func (s *InventoryStore) GetForOwner(ctx context.Context, personID, id int64) (*model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		inventorySelect+` WHERE ii.id = ? AND ii.is_deleted = 0 AND i.person_id = ?`,
		id, personID,
	)
	item, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

// ListByPerson returns the person's live pantry rows ordered by name, then
// expiration with undated rows last.
func (s *InventoryStore) ListByPerson(ctx context.Context, personID int64) ([]model.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		inventorySelect+` WHERE i.person_id = ? AND ii.is_deleted = 0
ORDER BY i.name ASC, ii.expires_on IS NULL, ii.expires_on ASC, ii.id ASC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Update replaces count, expiration and notes on a live owned row.
func (s *InventoryStore) Update(ctx context.Context, personID, id int64, count int, expiresOn, notes *string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET count = ?, expires_on = ?, notes = ?
WHERE id = ? AND is_deleted = 0 AND `+ownedInventoryItem,
		count, nullString(expiresOn), nullString(notes), id, personID,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory item: %w", err)
	}
	return affected(result)
}

// SoftDelete marks an owned row deleted. Deleting an already-deleted row
// still reports a match.
func (s *InventoryStore) SoftDelete(ctx context.Context, personID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET is_deleted = 1 WHERE id = ? AND `+ownedInventoryItem,
		id, personID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete inventory item: %w", err)
	}
	return affected(result)
}
