package model

import "time"

// Ingredient is a grocery item name scoped to one person.
type Ingredient struct {
	ID        int64     `json:"id"`
	PersonID  int64     `json:"person_id"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// List is a named shopping list container.
type List struct {
	ID        int64     `json:"id"`
	PersonID  int64     `json:"person_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ListItem is one line on a shopping list, joined with its ingredient and list.
type ListItem struct {
	ID           int64     `json:"id"`
	ListID       int64     `json:"list_id"`
	ListName     string    `json:"list_name"`
	IngredientID int64     `json:"ingredient_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Aisle        string    `json:"aisle"`
	AddedAt      time.Time `json:"added_at"`
}

// InventoryItem is one stock entry in a person's pantry, joined with its ingredient.
type InventoryItem struct {
	ID               int64     `json:"id"`
	IngredientID     int64     `json:"ingredient_id"`
	Name             string    `json:"name"`
	Count            int       `json:"count"`
	Aisle            string    `json:"aisle"`
	PurchasedAt      time.Time `json:"purchased_at"`
	ExpiresOn        *string   `json:"expires_on"`
	Notes            *string   `json:"notes"`
	SourceListItemID *int64    `json:"source_list_item_id"`
}
