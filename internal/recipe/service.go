// Package recipe manages a person's recipes along with their ratings,
// comments and images, and imports recipes from web pages.
package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dukerupert/groceryguru/internal/media"
	"github.com/dukerupert/groceryguru/internal/model"
	"github.com/dukerupert/groceryguru/internal/pantry"
	"github.com/dukerupert/groceryguru/internal/store"
)

// Input carries the user-editable recipe fields. Blank optional fields are
// stored as NULL.
type Input struct {
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Steps        string `json:"steps"`
	SpecialNotes string `json:"special_notes"`
	SourceURL    string `json:"source_url"`
	Category     string `json:"category"`
}

func (in Input) fields() (store.RecipeFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return store.RecipeFields{}, &pantry.ValidationError{Field: "title", Msg: "is required"}
	}
	return store.RecipeFields{
		Title:        title,
		Ingredients:  strings.TrimSpace(in.Ingredients),
		Steps:        strings.TrimSpace(in.Steps),
		SpecialNotes: optional(in.SpecialNotes),
		SourceURL:    optional(in.SourceURL),
		Category:     storedCategory(in.Category),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type Service struct {
	db        *sql.DB
	media     media.Storage
	extractor *Extractor
	maxUpload int64
	logger    *slog.Logger
}

func NewService(db *sql.DB, storage media.Storage, extractor *Extractor, maxUpload int64, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		media:     storage,
		extractor: extractor,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// owned returns the live recipe or pantry.ErrNotFound.
func owned(ctx context.Context, db store.DBTX, owner, id int64) (*model.Recipe, error) {
	r, err := store.NewRecipeStore(db).GetForOwner(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, pantry.ErrNotFound
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, owner int64, in Input) (*model.Recipe, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	var r *model.Recipe
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		id, err := store.NewRecipeStore(tx).Create(ctx, owner, f)
		if err != nil {
			return err
		}
		r, err = owned(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the recipe with the caller's rating, comments and images.
func (s *Service) Get(ctx context.Context, owner, id int64) (*model.RecipeDetail, error) {
	r, err := owned(ctx, s.db, owner, id)
	if err != nil {
		return nil, err
	}
	detail := &model.RecipeDetail{Recipe: *r}

	rating, err := store.NewRatingStore(s.db).Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if rating != nil {
		detail.MyRating = &rating.Rating
	}
	if detail.Comments, err = store.NewCommentStore(s.db).ListByRecipe(ctx, id); err != nil {
		return nil, err
	}
	if detail.Images, err = store.NewImageStore(s.db).ListByRecipe(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) List(ctx context.Context, owner int64) ([]model.Recipe, error) {
	return store.NewRecipeStore(s.db).ListByPerson(ctx, owner)
}

// ListByCategory lists recipes filed under category. "Others" lists
// uncategorized recipes.
func (s *Service) ListByCategory(ctx context.Context, owner int64, category string) ([]model.Recipe, error) {
	c, err := categoryFilter(category)
	if err != nil {
		return nil, err
	}
	return store.NewRecipeStore(s.db).ListByCategory(ctx, owner, c)
}

// Update replaces every editable field. Optional fields left blank are cleared.
func (s *Service) Update(ctx context.Context, owner, id int64, in Input) (*model.Recipe, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	var r *model.Recipe
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewRecipeStore(tx).Update(ctx, owner, id, f)
		if err != nil {
			return err
		}
		if !ok {
			return pantry.ErrNotFound
		}
		r, err = owned(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SoftDelete hides an owned recipe. Deleting it again is a no-op.
func (s *Service) SoftDelete(ctx context.Context, owner, id int64) error {
	ok, err := store.NewRecipeStore(s.db).SoftDelete(ctx, owner, id)
	if err != nil {
		return err
	}
	if !ok {
		return pantry.ErrNotFound
	}
	return nil
}

// Rate records the caller's 1 to 5 rating, replacing any earlier rating.
func (s *Service) Rate(ctx context.Context, owner, id int64, rating int) (*model.Recipe, error) {
	if rating < 1 || rating > 5 {
		return nil, &pantry.ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}
	var r *model.Recipe
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := owned(ctx, tx, owner, id); err != nil {
			return err
		}
		if err := store.NewRatingStore(tx).Upsert(ctx, id, owner, rating); err != nil {
			return err
		}
		var err error
		r, err = owned(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Comment(ctx context.Context, owner, id int64, body string) (*model.RecipeComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &pantry.ValidationError{Field: "body", Msg: "is required"}
	}
	var c *model.RecipeComment
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := owned(ctx, tx, owner, id); err != nil {
			return err
		}
		var err error
		c, err = store.NewCommentStore(tx).Create(ctx, id, owner, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, owner, recipeID, commentID int64) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := owned(ctx, tx, owner, recipeID); err != nil {
			return err
		}
		ok, err := store.NewCommentStore(tx).SoftDelete(ctx, recipeID, owner, commentID)
		if err != nil {
			return err
		}
		if !ok {
			return pantry.ErrNotFound
		}
		return nil
	})
}

// AddImage validates and stores an uploaded image for an owned recipe. The
// stored object is removed again if the image row cannot be written.
func (s *Service) AddImage(ctx context.Context, owner, recipeID int64, body io.Reader) (*model.RecipeImage, error) {
	if _, err := owned(ctx, s.db, owner, recipeID); err != nil {
		return nil, err
	}

	upload, err := media.Validate(body, s.maxUpload)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return nil, &pantry.ValidationError{Field: "image", Msg: fmt.Sprintf("must be at most %d bytes", s.maxUpload)}
	case errors.Is(err, media.ErrUnsupportedType):
		return nil, &pantry.ValidationError{Field: "image", Msg: "must be a JPEG, PNG, GIF or WebP image"}
	case err != nil:
		return nil, err
	}

	key := media.NewKey(fmt.Sprintf("recipes/%d", recipeID), upload.ContentType)
	if err := media.PutUpload(ctx, s.media, key, upload); err != nil {
		return nil, err
	}

	var img *model.RecipeImage
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := owned(ctx, tx, owner, recipeID); err != nil {
			return err
		}
		img, err = store.NewImageStore(tx).Create(ctx, recipeID, key, upload.ContentType, int64(len(upload.Data)))
		return err
	})
	if err != nil {
		if derr := s.media.Delete(ctx, key); derr != nil {
			s.logger.Error("remove orphaned image", "key", key, "error", derr)
		}
		return nil, err
	}
	return img, nil
}

func (s *Service) Images(ctx context.Context, owner, recipeID int64) ([]model.RecipeImage, error) {
	if _, err := owned(ctx, s.db, owner, recipeID); err != nil {
		return nil, err
	}
	return store.NewImageStore(s.db).ListByRecipe(ctx, recipeID)
}

// OpenImage returns the image metadata and its content. The caller closes the reader.
func (s *Service) OpenImage(ctx context.Context, owner, recipeID, imageID int64) (*model.RecipeImage, io.ReadCloser, error) {
	if _, err := owned(ctx, s.db, owner, recipeID); err != nil {
		return nil, nil, err
	}
	img, err := store.NewImageStore(s.db).Get(ctx, recipeID, imageID)
	if err != nil {
		return nil, nil, err
	}
	if img == nil {
		return nil, nil, pantry.ErrNotFound
	}
	rc, err := s.media.Open(ctx, img.StorageKey)
	if errors.Is(err, media.ErrNotFound) {
		return nil, nil, pantry.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return img, rc, nil
}

// DeleteImage soft-deletes the image row. The stored object is kept with it.
// Deleting it again is a no-op.
func (s *Service) DeleteImage(ctx context.Context, owner, recipeID, imageID int64) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := owned(ctx, tx, owner, recipeID); err != nil {
			return err
		}
		ok, err := store.NewImageStore(tx).SoftDelete(ctx, recipeID, imageID)
		if err != nil {
			return err
		}
		if !ok {
			return pantry.ErrNotFound
		}
		return nil
	})
}

// Import fetches a recipe page and saves what it describes as a new recipe.
// The page's lead image is attached when it can be downloaded.
func (s *Service) Import(ctx context.Context, owner int64, rawURL string) (*model.RecipeDetail, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, &pantry.ValidationError{Field: "url", Msg: "is required"}
	}
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &pantry.ValidationError{Field: "url", Msg: "must be an http or https URL"}
	}
	ex, err := s.extractor.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	r, err := s.Create(ctx, owner, Input{
		Title:        ex.Title,
		Ingredients:  ex.Ingredients,
		Steps:        ex.Steps,
		SpecialNotes: ex.SpecialNotes,
		SourceURL:    ex.SourceURL,
		Category:     ex.Category,
	})
	if err != nil {
		return nil, err
	}

	if ex.ImageURL != "" {
		s.importImage(ctx, owner, r.ID, ex.ImageURL)
	}
	return s.Get(ctx, owner, r.ID)
}

func (s *Service) importImage(ctx context.Context, owner, recipeID int64, imageURL string) {
	body, err := s.extractor.FetchImage(ctx, imageURL)
	if err != nil {
		s.logger.Warn("fetch recipe image", "url", imageURL, "error", err)
		return
	}
	defer body.Close()

	if _, err := s.AddImage(ctx, owner, recipeID, body); err != nil {
		s.logger.Warn("store recipe image", "url", imageURL, "error", err)
	}
}
