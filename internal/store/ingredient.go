package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

type IngredientStore struct {
	db DBTX
}

func NewIngredientStore(db DBTX) *IngredientStore {
	return &IngredientStore{db: db}
}

func scanIngredient(row scanner) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := row.Scan(&ing.ID, &ing.PersonID, &ing.Name, &ing.IsDeleted, &ing.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

const ingredientCols = `id, person_id, name, is_deleted, created_at`

// GetLive returns the live ingredient with exactly this name for the person, or nil.
func (s *IngredientStore) GetLive(ctx context.Context, personID int64, name string) (*model.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientCols+` FROM ingredients WHERE person_id = ? AND name = ? AND is_deleted = 0`,
		personID, name,
	)
	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

// GetOrCreate returns the live ingredient for (person, name), inserting it if missing.
// A concurrent insert of the same name is absorbed by the live-name unique index
// and the row is re-read.
func (s *IngredientStore) GetOrCreate(ctx context.Context, personID int64, name string) (*model.Ingredient, error) {
	ing, err := s.GetLive(ctx, personID, name)
	if err != nil || ing != nil {
		return ing, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ingredients (person_id, name) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		personID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ingredient: %w", err)
	}

	ing, err = s.GetLive(ctx, personID, name)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, fmt.Errorf("insert ingredient: row for %q not visible after insert", name)
	}
	return ing, nil
}

func (s *IngredientStore) ListByPerson(ctx context.Context, personID int64) ([]model.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ingredientCols+` FROM ingredients WHERE person_id = ? AND is_deleted = 0 ORDER BY name ASC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ingredients = append(ingredients, *ing)
	}
	return ingredients, rows.Err()
}
