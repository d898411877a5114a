package recipe

import (
	"strings"

	"github.com/dukerupert/groceryguru/internal/pantry"
)

// Categories a recipe can be filed under. Recipes without one are listed
// under Others.
const (
	Desserts   = "Desserts"
	Dinners    = "Dinners"
	Breakfasts = "Breakfasts"
	Others     = "Others"
)

var Categories = []string{Desserts, Dinners, Breakfasts, Others}

// Checked in order; the first category with a matching keyword wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{Desserts, []string{"dessert", "cake", "cookie", "pie", "brownie", "pastry"}},
	{Dinners, []string{"dinner", "main", "entrée", "entree", "lunch", "supper"}},
	{Breakfasts, []string{"breakfast", "brunch", "pancake", "waffle", "omelet"}},
}

// NormalizeCategory maps free-form category text, such as a site's
// recipeCategory, to one of the fixed categories. Unrecognized text yields "".
func NormalizeCategory(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return ""
	}
	for _, c := range categoryKeywords {
		for _, k := range c.keywords {
			if strings.Contains(lower, k) {
				return c.category
			}
		}
	}
	return ""
}

// storedCategory converts input to the column value. Blank, "Others" and
// unrecognized text are all stored as NULL.
func storedCategory(raw string) *string {
	c := NormalizeCategory(raw)
	if c == "" {
		return nil
	}
	return &c
}

// categoryFilter resolves a category path segment for listing. "Others"
// selects uncategorized recipes.
func categoryFilter(raw string) (*string, error) {
	for _, c := range Categories {
		if strings.EqualFold(raw, c) {
			if c == Others {
				return nil, nil
			}
			return &c, nil
		}
	}
	return nil, &pantry.ValidationError{Field: "category", Msg: "must be one of Desserts, Dinners, Breakfasts, Others"}
}
