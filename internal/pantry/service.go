// Package pantry owns the shopping list and pantry item lifecycle: resolving
// ingredients and lists by name, merging pantry additions into matching rows,
// and owner-checked edits and soft deletes.
package pantry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/groceryguru/internal/aisle"
	"github.com/dukerupert/groceryguru/internal/model"
	"github.com/dukerupert/groceryguru/internal/store"
)

// DefaultListName is created for any person who has no lists yet.
const DefaultListName = "Grocery list"

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// NewPantryItem is the input to AddPantryItem.
type NewPantryItem struct {
	Name       string
	Count      int
	Expiration string
	Notes      string
}

// PantryUpdate replaces the mutable fields of a pantry row. Blank Expiration
// or Notes clear the stored value.
type PantryUpdate struct {
	Count      int
	Expiration string
	Notes      string
}

// Outcome reports the pantry row an addition landed in and whether it was
// merged into an existing row rather than created.
type Outcome struct {
	Item   *model.InventoryItem `json:"item"`
	Merged bool                 `json:"merged"`
}

func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(field, "is required")
	}
	return name, nil
}

// ResolveIngredient returns the id of the owner's live ingredient with this
// exact name, creating it if absent.
func (s *Service) ResolveIngredient(ctx context.Context, owner int64, name string) (int64, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return 0, err
	}
	var id int64
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ing, err := store.NewIngredientStore(tx).GetOrCreate(ctx, owner, name)
		if err != nil {
			return err
		}
		id = ing.ID
		return nil
	})
	return id, err
}

// ResolveList returns the id of the owner's list with this name, creating it
// if absent. A blank name resolves to the default list.
func (s *Service) ResolveList(ctx context.Context, owner int64, name string) (int64, error) {
	var id int64
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		l, err := resolveList(ctx, tx, owner, name)
		if err != nil {
			return err
		}
		id = l.ID
		return nil
	})
	return id, err
}

func resolveList(ctx context.Context, tx *sql.Tx, owner int64, name string) (*model.List, error) {
	if _, err := ensureDefaultList(ctx, tx, owner); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultListName
	}
	return store.NewListStore(tx).GetOrCreate(ctx, owner, name)
}

func ensureDefaultList(ctx context.Context, tx *sql.Tx, owner int64) (*model.List, error) {
	lists := store.NewListStore(tx)
	n, err := lists.Count(ctx, owner)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	return lists.GetOrCreate(ctx, owner, DefaultListName)
}

// EnsureDefaultList creates the default list when the owner has none. It
// returns the created list, or nil if the owner already had lists.
func (s *Service) EnsureDefaultList(ctx context.Context, owner int64) (*model.List, error) {
	var l *model.List
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		l, err = ensureDefaultList(ctx, tx, owner)
		return err
	})
	return l, err
}

// SeedDefaultList creates the default list within the caller's transaction.
// Registration uses it so a new person starts with a list.
func SeedDefaultList(ctx context.Context, tx *sql.Tx, owner int64) error {
	_, err := ensureDefaultList(ctx, tx, owner)
	return err
}

// Lists returns the owner's lists, creating the default list first if needed.
func (s *Service) Lists(ctx context.Context, owner int64) ([]model.List, error) {
	var lists []model.List
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := ensureDefaultList(ctx, tx, owner); err != nil {
			return err
		}
		var err error
		lists, err = store.NewListStore(tx).ListByPerson(ctx, owner)
		return err
	})
	return lists, err
}

// ListItems returns the live items of the named list.
func (s *Service) ListItems(ctx context.Context, owner int64, listName string) ([]model.ListItem, error) {
	var items []model.ListItem
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := ensureDefaultList(ctx, tx, owner); err != nil {
			return err
		}
		l, err := store.NewListStore(tx).GetByName(ctx, owner, strings.TrimSpace(listName))
		if err != nil {
			return err
		}
		if l == nil {
			return ErrNotFound
		}
		items, err = store.NewListItemStore(tx).ListByList(ctx, owner, l.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Aisle = aisle.Classify(items[i].Name)
	}
	return items, nil
}

func (s *Service) GetListItem(ctx context.Context, owner, id int64) (*model.ListItem, error) {
	return getListItem(ctx, s.db, owner, id)
}

func getListItem(ctx context.Context, db store.DBTX, owner, id int64) (*model.ListItem, error) {
	item, err := store.NewListItemStore(db).GetForOwner(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	item.Aisle = aisle.Classify(item.Name)
	return item, nil
}

// PantryItems returns the owner's live pantry rows.
func (s *Service) PantryItems(ctx context.Context, owner int64) ([]model.InventoryItem, error) {
	items, err := store.NewInventoryStore(s.db).ListByPerson(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Aisle = aisle.Classify(items[i].Name)
	}
	return items, nil
}

func (s *Service) GetPantryItem(ctx context.Context, owner, id int64) (*model.InventoryItem, error) {
	return getPantryItem(ctx, s.db, owner, id)
}

func getPantryItem(ctx context.Context, db store.DBTX, owner, id int64) (*model.InventoryItem, error) {
	item, err := store.NewInventoryStore(db).GetForOwner(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	item.Aisle = aisle.Classify(item.Name)
	return item, nil
}

// FindMatch returns the live pantry row for the ingredient whose expiration
// normalizes to the same date. No expiration matches only no expiration.
// When several rows qualify the lowest id wins.
func (s *Service) FindMatch(ctx context.Context, ingredientID int64, expiration string) (int64, bool, error) {
	exp, err := NormalizeExpiration(expiration)
	if err != nil {
		return 0, false, err
	}
	return store.NewInventoryStore(s.db).FindMatch(ctx, ingredientID, exp)
}

// AddPantryItem adds stock to the owner's pantry. A live row with the same
// ingredient and expiration absorbs the count; otherwise a new row is created.
func (s *Service) AddPantryItem(ctx context.Context, owner int64, in NewPantryItem) (*Outcome, error) {
	name, err := cleanName("name", in.Name)
	if err != nil {
		return nil, err
	}
	exp, err := NormalizeExpiration(in.Expiration)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ing, err := store.NewIngredientStore(tx).GetOrCreate(ctx, owner, name)
		if err != nil {
			return err
		}
		out, err = addStock(ctx, tx, owner, store.NewInventoryItem{
			IngredientID: ing.ID,
			Count:        Clamp(in.Count),
			ExpiresOn:    exp,
			Notes:        normalizeNotes(in.Notes),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// addStock merges into a matching row or inserts a new one. Notes and the
// source list item only apply to newly created rows.
func addStock(ctx context.Context, tx *sql.Tx, owner int64, in store.NewInventoryItem) (*Outcome, error) {
	inv := store.NewInventoryStore(tx)

	id, found, err := inv.FindMatch(ctx, in.IngredientID, in.ExpiresOn)
	if err != nil {
		return nil, err
	}
	if found {
		cur, err := inv.GetForOwner(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		if cur != nil && cur.Count > MaxCount-in.Count {
			return nil, invalid("count", fmt.Sprintf("pantry count cannot exceed %d", MaxCount))
		}
		if err := inv.AddCount(ctx, id, in.Count); err != nil {
			return nil, err
		}
	} else {
		id, err = inv.Create(ctx, in)
		if err != nil {
			return nil, err
		}
	}

	item, err := getPantryItem(ctx, tx, owner, id)
	if err != nil {
		return nil, err
	}
	return &Outcome{Item: item, Merged: found}, nil
}

// AddListItem appends a line to the named list. Every call creates a new row.
func (s *Service) AddListItem(ctx context.Context, owner int64, listName, name string, quantity int) (*model.ListItem, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}

	var item *model.ListItem
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		l, err := resolveList(ctx, tx, owner, listName)
		if err != nil {
			return err
		}
		ing, err := store.NewIngredientStore(tx).GetOrCreate(ctx, owner, name)
		if err != nil {
			return err
		}
		id, err := store.NewListItemStore(tx).Create(ctx, l.ID, ing.ID, Clamp(quantity))
		if err != nil {
			return err
		}
		item, err = getListItem(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateInventoryItem replaces count, expiration and notes on an owned row.
func (s *Service) UpdateInventoryItem(ctx context.Context, owner, id int64, in PantryUpdate) (*model.InventoryItem, error) {
	exp, err := NormalizeExpiration(in.Expiration)
	if err != nil {
		return nil, err
	}

	var item *model.InventoryItem
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewInventoryStore(tx).Update(ctx, owner, id, Clamp(in.Count), exp, normalizeNotes(in.Notes))
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		item, err = getPantryItem(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateListItem sets the quantity of an owned list item.
func (s *Service) UpdateListItem(ctx context.Context, owner, id int64, quantity int) (*model.ListItem, error) {
	var item *model.ListItem
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewListItemStore(tx).UpdateQuantity(ctx, owner, id, Clamp(quantity))
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		item, err = getListItem(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SoftDeleteInventoryItem hides an owned pantry row. Repeating the call on a
// row the owner already deleted succeeds without changing anything.
func (s *Service) SoftDeleteInventoryItem(ctx context.Context, owner, id int64) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewInventoryStore(tx).SoftDelete(ctx, owner, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

// SoftDeleteListItem hides an owned list item, with the same repeat semantics
// as SoftDeleteInventoryItem.
func (s *Service) SoftDeleteListItem(ctx context.Context, owner, id int64) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewListItemStore(tx).SoftDelete(ctx, owner, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

// MoveListItemToPantry checks a list item off: the item is soft-deleted and its
// quantity is added to the pantry under the given expiration. A newly created
// pantry row records the list item it came from.
func (s *Service) MoveListItemToPantry(ctx context.Context, owner, listItemID int64, expiration string) (*Outcome, error) {
	exp, err := NormalizeExpiration(expiration)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		item, err := getListItem(ctx, tx, owner, listItemID)
		if err != nil {
			return err
		}
		if _, err := store.NewListItemStore(tx).SoftDelete(ctx, owner, item.ID); err != nil {
			return err
		}
		sourceID := item.ID
		out, err = addStock(ctx, tx, owner, store.NewInventoryItem{
			IngredientID:     item.IngredientID,
			Count:            Clamp(item.Quantity),
			ExpiresOn:        exp,
			SourceListItemID: &sourceID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
