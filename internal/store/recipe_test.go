package store

import (
	"context"
	"testing"
)

func TestRecipeCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRecipeStore(db)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")

	id, err := rs.Create(ctx, alice, RecipeFields{
		Title:       "Pancakes",
		Ingredients: "flour\nmilk\neggs",
		Steps:       "mix\nfry",
		Category:    strPtr("Breakfasts"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r, err := rs.GetForOwner(ctx, alice, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r == nil {
		t.Fatal("expected recipe, got nil")
	}
	if r.Title != "Pancakes" {
		t.Errorf("title = %q, want %q", r.Title, "Pancakes")
	}
	if r.Category == nil || *r.Category != "Breakfasts" {
		t.Errorf("category = %v, want Breakfasts", r.Category)
	}
	if r.SpecialNotes != nil {
		t.Errorf("special_notes = %q, want nil", *r.SpecialNotes)
	}
	if r.AverageRating != nil {
		t.Errorf("average_rating = %v, want nil", *r.AverageRating)
	}
	if r.RatingCount != 0 {
		t.Errorf("rating_count = %d, want 0", r.RatingCount)
	}
}

func TestRecipeOwnershipAndSoftDelete(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRecipeStore(db)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")
	bob := createTestPerson(t, db, "bob@example.com")

	id, _ := rs.Create(ctx, alice, RecipeFields{Title: "Soup"})

	if r, _ := rs.GetForOwner(ctx, bob, id); r != nil {
		t.Error("bob should not see alice's recipe")
	}
	if ok, _ := rs.Update(ctx, bob, id, RecipeFields{Title: "Stolen"}); ok {
		t.Error("bob should not update alice's recipe")
	}
	if ok, _ := rs.SoftDelete(ctx, bob, id); ok {
		t.Error("bob should not delete alice's recipe")
	}

	ok, err := rs.SoftDelete(ctx, alice, id)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if !ok {
		t.Fatal("soft delete matched no row")
	}
	if r, _ := rs.GetForOwner(ctx, alice, id); r != nil {
		t.Error("expected nil after soft delete")
	}
	if recipes, _ := rs.ListByPerson(ctx, alice); len(recipes) != 0 {
		t.Errorf("recipes = %d, want 0", len(recipes))
	}
}

func TestRecipeUpdateClearsOptional(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRecipeStore(db)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")

	id, _ := rs.Create(ctx, alice, RecipeFields{
		Title:        "Pie",
		SpecialNotes: strPtr("chill overnight"),
		SourceURL:    strPtr("https://example.com/pie"),
		Category:     strPtr("Desserts"),
	})

	ok, err := rs.Update(ctx, alice, id, RecipeFields{Title: "Apple Pie", Steps: "bake"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("update matched no row")
	}

	r, _ := rs.GetForOwner(ctx, alice, id)
	if r.Title != "Apple Pie" {
		t.Errorf("title = %q, want %q", r.Title, "Apple Pie")
	}
	if r.SpecialNotes != nil || r.SourceURL != nil || r.Category != nil {
		t.Errorf("optional fields = (%v, %v, %v), want all nil", r.SpecialNotes, r.SourceURL, r.Category)
	}
}

func TestRecipeListByCategory(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRecipeStore(db)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")

	rs.Create(ctx, alice, RecipeFields{Title: "Cake", Category: strPtr("Desserts")})
	rs.Create(ctx, alice, RecipeFields{Title: "Cookies", Category: strPtr("Desserts")})
	rs.Create(ctx, alice, RecipeFields{Title: "Toast"})

	desserts, err := rs.ListByCategory(ctx, alice, strPtr("Desserts"))
	if err != nil {
		t.Fatalf("list desserts: %v", err)
	}
	if len(desserts) != 2 {
		t.Errorf("desserts = %d, want 2", len(desserts))
	}

	others, err := rs.ListByCategory(ctx, alice, nil)
	if err != nil {
		t.Fatalf("list uncategorized: %v", err)
	}
	if len(others) != 1 || others[0].Title != "Toast" {
		t.Errorf("uncategorized = %+v, want only Toast", others)
	}
}

func TestRatingUpsertAndAverage(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRecipeStore(db)
	ratings := NewRatingStore(db)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")
	bob := createTestPerson(t, db, "bob@example.com")

	id, _ := rs.Create(ctx, alice, RecipeFields{Title: "Chili"})

	if err := ratings.Upsert(ctx, id, alice, 2); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := ratings.Upsert(ctx, id, alice, 4); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	ratings.Upsert(ctx, id, bob, 5)

	got, err := ratings.Get(ctx, id, alice)
	if err != nil {
		t.Fatalf("get rating: %v", err)
	}
	if got == nil || got.Rating != 4 {
		t.Errorf("rating = %v, want 4", got)
	}

	r, _ := rs.GetForOwner(ctx, alice, id)
	if r.RatingCount != 2 {
		t.Errorf("rating_count = %d, want 2", r.RatingCount)
	}
	if r.AverageRating == nil || *r.AverageRating != 4.5 {
		t.Errorf("average_rating = %v, want 4.5", r.AverageRating)
	}

	if err := ratings.Upsert(ctx, id, alice, 6); err == nil {
		t.Error("expected check constraint error for rating 6")
	}
}

func TestCommentsAndImages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	alice := createTestPerson(t, db, "alice@example.com")
	id, _ := NewRecipeStore(db).Create(ctx, alice, RecipeFields{Title: "Bread"})

	cs := NewCommentStore(db)
	c, err := cs.Create(ctx, id, alice, "needs more salt")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	cs.Create(ctx, id, alice, "perfect")

	ok, _ := cs.SoftDelete(ctx, id, alice, c.ID)
	if !ok {
		t.Error("soft delete comment matched no row")
	}
	comments, _ := cs.ListByRecipe(ctx, id)
	if len(comments) != 1 || comments[0].Body != "perfect" {
		t.Errorf("comments = %+v, want only \"perfect\"", comments)
	}

	is := NewImageStore(db)
	img, err := is.Create(ctx, id, "recipes/abc.jpg", "image/jpeg", 1234)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	got, _ := is.Get(ctx, id, img.ID)
	if got == nil || got.StorageKey != "recipes/abc.jpg" {
		t.Errorf("image = %+v, want key recipes/abc.jpg", got)
	}
	if got, _ := is.Get(ctx, id+1, img.ID); got != nil {
		t.Error("image should not resolve under another recipe")
	}

	is.SoftDelete(ctx, id, img.ID)
	images, _ := is.ListByRecipe(ctx, id)
	if len(images) != 0 {
		t.Errorf("images = %d, want 0", len(images))
	}
	if ok, err := is.SoftDelete(ctx, id, img.ID); err != nil || !ok {
		t.Errorf("repeat soft delete = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := is.SoftDelete(ctx, id+1, img.ID); ok {
		t.Error("soft delete should not match under another recipe")
	}
}
