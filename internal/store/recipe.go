package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

type RecipeStore struct {
	db DBTX
}

func NewRecipeStore(db DBTX) *RecipeStore {
	return &RecipeStore{db: db}
}

// RecipeFields are the user-editable columns of a recipe.
type RecipeFields struct {
	Title        string
	Ingredients  string
	Steps        string
	SpecialNotes *string
	SourceURL    *string
	Category     *string
}

func scanRecipe(row scanner) (*model.Recipe, error) {
	var r model.Recipe
	var notes, sourceURL, category sql.NullString
	var avg sql.NullFloat64

	err := row.Scan(
		&r.ID, &r.PersonID, &r.Title, &r.Ingredients, &r.Steps,
		&notes, &sourceURL, &category, &avg, &r.RatingCount,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.SpecialNotes = stringPtr(notes)
	r.SourceURL = stringPtr(sourceURL)
	r.Category = stringPtr(category)
	if avg.Valid {
		r.AverageRating = &avg.Float64
	}
	return &r, nil
}

const recipeSelect = `SELECT r.id, r.person_id, r.title, r.ingredients, r.steps,
r.special_notes, r.source_url, r.category,
(SELECT AVG(rating) FROM recipe_ratings WHERE recipe_id = r.id),
(SELECT COUNT(*) FROM recipe_ratings WHERE recipe_id = r.id),
r.created_at, r.updated_at
FROM recipes r`

func (s *RecipeStore) Create(ctx context.Context, personID int64, f RecipeFields) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (person_id, title, ingredients, steps, special_notes, source_url, category)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		personID, f.Title, f.Ingredients, f.Steps,
		nullString(f.SpecialNotes), nullString(f.SourceURL), nullString(f.Category),
	)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetForOwner returns a live recipe owned by the person, or nil.
func (s *RecipeStore) GetForOwner(ctx context.Context, personID, id int64) (*model.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		recipeSelect+` WHERE r.id = ? AND r.person_id = ? AND r.is_deleted = 0`,
		id, personID,
	)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeStore) ListByPerson(ctx context.Context, personID int64) ([]model.Recipe, error) {
	return s.list(ctx,
		recipeSelect+` WHERE r.person_id = ? AND r.is_deleted = 0 ORDER BY r.created_at DESC, r.id DESC`,
		personID,
	)
}

// ListByCategory returns live recipes in one category. A nil category selects
// uncategorized recipes.
func (s *RecipeStore) ListByCategory(ctx context.Context, personID int64, category *string) ([]model.Recipe, error) {
	return s.list(ctx,
		recipeSelect+` WHERE r.person_id = ? AND r.is_deleted = 0 AND r.category IS ?
ORDER BY r.created_at DESC, r.id DESC`,
		personID, nullString(category),
	)
}

func (s *RecipeStore) list(ctx context.Context, query string, args ...any) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) Update(ctx context.Context, personID, id int64, f RecipeFields) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET title = ?, ingredients = ?, steps = ?, special_notes = ?, source_url = ?, category = ?
WHERE id = ? AND person_id = ? AND is_deleted = 0`,
		f.Title, f.Ingredients, f.Steps,
		nullString(f.SpecialNotes), nullString(f.SourceURL), nullString(f.Category),
		id, personID,
	)
	if err != nil {
		return false, fmt.Errorf("update recipe: %w", err)
	}
	return affected(result)
}

func (s *RecipeStore) SoftDelete(ctx context.Context, personID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET is_deleted = 1 WHERE id = ? AND person_id = ?`,
		id, personID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete recipe: %w", err)
	}
	return affected(result)
}
