package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestImages(t *testing.T) *ImageService {
	t.Helper()
	return NewImageService(storage.NewLocalStore(t.TempDir(), "/media"))
}

// testImagePayload is a 1x1 PNG as a data URL.
func testImagePayload() string {
	pixel := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pixel)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Slug: name}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return &ingredient
}

func validRecipeInput(tag *models.Tag, ingredient *models.Ingredient) RecipeInput {
	return RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 10,
		Image:       testImagePayload(),
		TagIDs:      []uint{tag.ID},
		Ingredients: []IngredientAmount{{ID: ingredient.ID, Amount: 2}},
	}
}

func createTestRecipe(t *testing.T, svc *RecipeService, authorID uint, tag *models.Tag, ingredient *models.Ingredient, name string) *models.Recipe {
	t.Helper()
	in := validRecipeInput(tag, ingredient)
	in.Name = name
	recipe, err := svc.Create(context.Background(), authorID, in)
	require.NoError(t, err)
	return recipe
}
