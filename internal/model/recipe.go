package model

import "time"

type Recipe struct {
	ID            int64     `json:"id"`
	PersonID      int64     `json:"person_id"`
	Title         string    `json:"title"`
	Ingredients   string    `json:"ingredients"`
	Steps         string    `json:"steps"`
	SpecialNotes  *string   `json:"special_notes"`
	SourceURL     *string   `json:"source_url"`
	Category      *string   `json:"category"`
	AverageRating *float64  `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RecipeRating struct {
	ID        int64     `json:"id"`
	RecipeID  int64     `json:"recipe_id"`
	PersonID  int64     `json:"person_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecipeComment struct {
	ID        int64     `json:"id"`
	RecipeID  int64     `json:"recipe_id"`
	PersonID  int64     `json:"person_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type RecipeImage struct {
	ID          int64     `json:"id"`
	RecipeID    int64     `json:"recipe_id"`
	StorageKey  string    `json:"-"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeDetail bundles a recipe with its comments and images.
type RecipeDetail struct {
	Recipe
	MyRating *int            `json:"my_rating"`
	Comments []RecipeComment `json:"comments"`
	Images   []RecipeImage   `json:"images"`
}
