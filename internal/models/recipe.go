package models

import (
	"time"
)

// MinCookingTime and MinIngredientAmount are the lower bounds enforced
// on recipe writes.
const (
	MinCookingTime      = 1
	MinIngredientAmount = 1
)

// Tag is read-only reference data seeded from fixtures.
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:150;uniqueIndex;not null" json:"slug"`
}

// Ingredient is read-only reference data seeded from fixtures.
// The same name may appear with different measurement units.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:150;not null;index;uniqueIndex:idx_ingredient_name_unit,priority:1" json:"name"`
	MeasurementUnit string `gorm:"size:64;uniqueIndex:idx_ingredient_name_unit,priority:2" json:"measurement_unit"`
}

type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"-"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Image       string    `gorm:"size:255;not null" json:"image"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null" json:"cooking_time"`

	Tags        []Tag              `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

// RecipeIngredient links a recipe to an ingredient with a quantity.
// An ingredient appears at most once per recipe.
type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"-"`
	Amount       int        `gorm:"not null" json:"amount"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_pair" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_pair" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

// ShoppingCartItem marks a recipe as queued for the user's shopping list.
// Structurally identical to Favorite but kept separate so the two marks
// stay independent per user.
type ShoppingCartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_pair" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_pair" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}

// All returns every model for migration, dependency-ordered.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subscription{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
	}
}
