package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ShoppingCartFilename is the attachment name for the exported list.
const ShoppingCartFilename = "shopping_cart.txt"

// ShoppingItem is one aggregated product line.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingListService builds the aggregated shopping list export.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate sums ingredient amounts over every recipe in the user's
// cart, grouped by (name, unit) and ordered by name.
func (s *ShoppingListService) Aggregate(userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CartRecipes returns the recipes currently in the user's cart with
// their authors.
func (s *ShoppingListService) CartRecipes(userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.Preload("Author").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id").
		Where("shopping_cart_items.user_id = ?", userID).
		Order("recipes.name").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// Render produces the plain-text document: a dated header, numbered
// product lines and the contributing recipes with their authors.
func Render(items []ShoppingItem, recipes []models.Recipe, now time.Time) string {
	var b strings.Builder
	b.WriteString("SHOPPING LIST\n")
	fmt.Fprintf(&b, "(compiled %s)\n\n", now.Format("2006-01-02"))

	b.WriteString("PRODUCTS:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s) - %d\n",
			i+1, capitalize(item.Name), item.MeasurementUnit, item.Amount)
	}

	b.WriteString("\nFOR RECIPES:\n")
	for _, recipe := range recipes {
		fmt.Fprintf(&b, "%s by %s\n", recipe.Name, recipe.Author.Username)
	}
	return b.String()
}

// Export builds the full text document for the user's cart.
func (s *ShoppingListService) Export(userID uint, now time.Time) (string, error) {
	items, err := s.Aggregate(userID)
	if err != nil {
		return "", err
	}
	recipes, err := s.CartRecipes(userID)
	if err != nil {
		return "", err
	}
	return Render(items, recipes, now), nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
