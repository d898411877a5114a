package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/groceryguru/internal/model"
)

// --- Ratings ---

type RatingStore struct {
	db DBTX
}

func NewRatingStore(db DBTX) *RatingStore {
	return &RatingStore{db: db}
}

// Upsert records the person's rating for a recipe, replacing any earlier one.
func (s *RatingStore) Upsert(ctx context.Context, recipeID, personID int64, rating int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_ratings (recipe_id, person_id, rating) VALUES (?, ?, ?)
ON CONFLICT (recipe_id, person_id) DO UPDATE SET rating = excluded.rating, updated_at = CURRENT_TIMESTAMP`,
		recipeID, personID, rating,
	)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// Get returns the person's rating for a recipe, or nil if they have not rated it.
func (s *RatingStore) Get(ctx context.Context, recipeID, personID int64) (*model.RecipeRating, error) {
	var r model.RecipeRating
	err := s.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, person_id, rating, created_at, updated_at
FROM recipe_ratings WHERE recipe_id = ? AND person_id = ?`,
		recipeID, personID,
	).Scan(&r.ID, &r.RecipeID, &r.PersonID, &r.Rating, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return &r, nil
}

// --- Comments ---

type CommentStore struct {
	db DBTX
}

func NewCommentStore(db DBTX) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row scanner) (*model.RecipeComment, error) {
	var c model.RecipeComment
	err := row.Scan(&c.ID, &c.RecipeID, &c.PersonID, &c.Body, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const commentCols = `id, recipe_id, person_id, body, created_at`

func (s *CommentStore) Create(ctx context.Context, recipeID, personID int64, body string) (*model.RecipeComment, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_comments (recipe_id, person_id, body) VALUES (?, ?, ?)`,
		recipeID, personID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+commentCols+` FROM recipe_comments WHERE id = ?`, id)
	return scanComment(row)
}

func (s *CommentStore) ListByRecipe(ctx context.Context, recipeID int64) ([]model.RecipeComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentCols+` FROM recipe_comments WHERE recipe_id = ? AND is_deleted = 0 ORDER BY created_at ASC, id ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.RecipeComment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// SoftDelete removes a comment written by the person on the given recipe.
func (s *CommentStore) SoftDelete(ctx context.Context, recipeID, personID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipe_comments SET is_deleted = 1 WHERE id = ? AND recipe_id = ? AND person_id = ?`,
		id, recipeID, personID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete comment: %w", err)
	}
	return affected(result)
}

// --- Images ---

type ImageStore struct {
	db DBTX
}

func NewImageStore(db DBTX) *ImageStore {
	return &ImageStore{db: db}
}

func scanImage(row scanner) (*model.RecipeImage, error) {
	var img model.RecipeImage
	err := row.Scan(&img.ID, &img.RecipeID, &img.StorageKey, &img.ContentType, &img.SizeBytes, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

const imageCols = `id, recipe_id, storage_key, content_type, size_bytes, created_at`

func (s *ImageStore) Create(ctx context.Context, recipeID int64, storageKey, contentType string, size int64) (*model.RecipeImage, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_images (recipe_id, storage_key, content_type, size_bytes) VALUES (?, ?, ?, ?)`,
		recipeID, storageKey, contentType, size,
	)
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+imageCols+` FROM recipe_images WHERE id = ?`, id)
	return scanImage(row)
}

// Get returns a live image attached to the recipe, or nil.
func (s *ImageStore) Get(ctx context.Context, recipeID, id int64) (*model.RecipeImage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+imageCols+` FROM recipe_images WHERE id = ? AND recipe_id = ? AND is_deleted = 0`,
		id, recipeID,
	)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func (s *ImageStore) ListByRecipe(ctx context.Context, recipeID int64) ([]model.RecipeImage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+imageCols+` FROM recipe_images WHERE recipe_id = ? AND is_deleted = 0 ORDER BY id ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []model.RecipeImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// SoftDelete hides an image. It reports whether the image belongs to the
// recipe, so deleting it twice still reports a match.
func (s *ImageStore) SoftDelete(ctx context.Context, recipeID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipe_images SET is_deleted = 1 WHERE id = ? AND recipe_id = ?`,
		id, recipeID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete image: %w", err)
	}
	return affected(result)
}
