package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

type ListItemStore struct {
	db DBTX
}

func NewListItemStore(db DBTX) *ListItemStore {
	return &ListItemStore{db: db}
}

func scanListItem(row scanner) (*model.ListItem, error) {
	var item model.ListItem
	err := row.Scan(
		&item.ID, &item.ListID, &item.ListName, &item.IngredientID,
		&item.Name, &item.Quantity, &item.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

const listItemSelect = `SELECT li.id, li.list_id, l.name, li.ingredient_id, i.name, li.quantity, li.added_at
FROM list_items li
JOIN lists l ON l.id = li.list_id
JOIN ingredients i ON i.id = li.ingredient_id`

// ownedListItem restricts a list_items statement to rows whose list and
// ingredient both belong to the person.
const ownedListItem = `list_id IN (SELECT id FROM lists WHERE person_id = ?)
AND ingredient_id IN (SELECT id FROM ingredients WHERE person_id = ?)`

func (s *ListItemStore) Create(ctx context.Context, listID, ingredientID int64, quantity int) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO list_items (list_id, ingredient_id, quantity) VALUES (?, ?, ?)`,
		listID, ingredientID, quantity,
	)
	if err != nil {
		return 0, fmt.Errorf("insert list item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetForOwner returns a live list item owned by the person, or nil.
func (s *ListItemStore) GetForOwner(ctx context.Context, personID, id int64) (*model.ListItem, error) {
	row := s.db.QueryRowContext(ctx,
		listItemSelect+` WHERE li.id = ? AND li.is_deleted = 0 AND l.person_id = ? AND i.person_id = ?`,
		id, personID, personID,
	)
	item, err := scanListItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list item: %w", err)
	}
	return item, nil
}

// ListByList returns the live items of one list, oldest first.
func (s *ListItemStore) ListByList(ctx context.Context, personID, listID int64) ([]model.ListItem, error) {
	rows, err := s.db.QueryContext(ctx,
		listItemSelect+` WHERE li.list_id = ? AND li.is_deleted = 0 AND l.person_id = ? AND i.person_id = ?
ORDER BY li.added_at ASC, li.id ASC`,
		listID, personID, personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list list items: %w", err)
	}
	defer rows.Close()

	var items []model.ListItem
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateQuantity sets the quantity of a live owned item. It reports whether a row matched.
func (s *ListItemStore) UpdateQuantity(ctx context.Context, personID, id int64, quantity int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE list_items SET quantity = ? WHERE id = ? AND is_deleted = 0 AND `+ownedListItem,
		quantity, id, personID, personID,
	)
	if err != nil {
		return false, fmt.Errorf("update list item: %w", err)
	}
	return affected(result)
}

// SoftDelete marks an owned item deleted. Deleting an already-deleted item
// still reports a match.
func (s *ListItemStore) SoftDelete(ctx context.Context, personID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE list_items SET is_deleted = 1 WHERE id = ? AND `+ownedListItem,
		id, personID, personID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete list item: %w", err)
	}
	return affected(result)
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
