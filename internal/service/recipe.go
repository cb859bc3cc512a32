package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// RecipeService covers recipe CRUD, validation and the favorite /
// shopping-cart marks.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// IngredientAmount is one entry of the recipe write payload.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the write payload for create and update.
type RecipeInput struct {
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Image       string             `json:"image"`
	TagIDs      []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	AuthorID       uint
	TagSlugs       []string
	Favorited      bool
	InShoppingCart bool
	// UserID of the requester, 0 for anonymous. Favorited and
	// InShoppingCart are no-ops without it.
	UserID uint
}

func (s *RecipeService) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient")
}

// Get returns one recipe with its associations.
func (s *RecipeService) Get(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.preload(s.db).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// List returns a page of recipes, newest first.
func (s *RecipeService) List(filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	query := s.db.Model(&models.Recipe{})

	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		// Membership test: a recipe matches when any of its tags is
		// listed. The subquery keeps rows and the count deduplicated.
		tagged := s.db.Model(&models.Tag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.Favorited && filter.UserID != 0 {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", filter.UserID)
	}
	if filter.InShoppingCart && filter.UserID != 0 {
		query = query.
			Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id").
			Where("shopping_cart_items.user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := s.preload(query).
		Order("recipes.created_at DESC, recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor returns the author's newest recipes, capped at limit
// when limit > 0.
func (s *RecipeService) ListByAuthor(authorID uint, limit int) ([]models.Recipe, error) {
	query := s.db.Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountByAuthor returns the author's total recipe count.
func (s *RecipeService) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// validateInput checks the write payload and resolves tag and
// ingredient references. requireImage is false on update, where an
// omitted image keeps the stored one.
func (s *RecipeService) validateInput(in *RecipeInput, requireImage bool) ([]models.Tag, []models.RecipeIngredient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, newValidationError("name", "name is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, nil, newValidationError("text", "description is required")
	}
	if in.CookingTime < models.MinCookingTime {
		return nil, nil, newValidationError("cooking_time", "cooking time must be at least %d minute", models.MinCookingTime)
	}
	if requireImage && in.Image == "" {
		return nil, nil, newValidationError("image", "recipe image is required")
	}

	if len(in.TagIDs) == 0 {
		return nil, nil, newValidationError("tags", "recipe must have at least one tag")
	}
	seenTags := make(map[uint]bool, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if seenTags[id] {
			return nil, nil, newValidationError("tags", "tags must not repeat")
		}
		seenTags[id] = true
	}
	var tags []models.Tag
	if err := s.db.Where("id IN ?", in.TagIDs).Find(&tags).Error; err != nil {
		return nil, nil, err
	}
	if len(tags) != len(in.TagIDs) {
		return nil, nil, newValidationError("tags", "unknown tag id")
	}

	if len(in.Ingredients) == 0 {
		return nil, nil, newValidationError("ingredients", "recipe must contain ingredients")
	}
	seenIngredients := make(map[uint]bool, len(in.Ingredients))
	ids := make([]uint, 0, len(in.Ingredients))
	for _, entry := range in.Ingredients {
		if entry.Amount < models.MinIngredientAmount {
			return nil, nil, newValidationError("ingredients", "ingredient amount must be at least %d", models.MinIngredientAmount)
		}
		if seenIngredients[entry.ID] {
			return nil, nil, newValidationError("ingredients", "ingredients must not repeat")
		}
		seenIngredients[entry.ID] = true
		ids = append(ids, entry.ID)
	}
	var count int64
	if err := s.db.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if int(count) != len(ids) {
		return nil, nil, newValidationError("ingredients", "unknown ingredient id")
	}

	links := make([]models.RecipeIngredient, 0, len(in.Ingredients))
	for _, entry := range in.Ingredients {
		links = append(links, models.RecipeIngredient{
			IngredientID: entry.ID,
			Amount:       entry.Amount,
		})
	}
	return tags, links, nil
}

// Create persists a new recipe with its tag and ingredient links in a
// single transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	tags, links, err := s.validateInput(&in, true)
	if err != nil {
		return nil, err
	}

	imageName, err := s.images.SaveRecipeImage(ctx, in.Image)
	if err != nil {
		return nil, newValidationError("image", "%s", err.Error())
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       imageName,
		Tags:        tags,
		Ingredients: links,
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&recipe).Error
	}); err != nil {
		return nil, err
	}
	return s.Get(recipe.ID)
}

// Update replaces the full tag and ingredient sets and the scalar
// fields. Only the author may update; a missing image keeps the
// stored one.
func (s *RecipeService) Update(ctx context.Context, recipeID, userID uint, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	tags, links, err := s.validateInput(&in, false)
	if err != nil {
		return nil, err
	}

	imageName := recipe.Image
	if in.Image != "" {
		imageName, err = s.images.SaveRecipeImage(ctx, in.Image)
		if err != nil {
			return nil, newValidationError("image", "%s", err.Error())
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
			"image":        imageName,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		// Delete-then-recreate, not a diff.
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].RecipeID = recipeID
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(recipeID)
}

// Delete removes a recipe and everything hanging off it. Author only.
func (s *RecipeService) Delete(recipeID, userID uint) error {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.ShoppingCartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
}

// IsFavorited reports whether the user has favorited the recipe.
func (s *RecipeService) IsFavorited(userID, recipeID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

// IsInShoppingCart reports whether the recipe is in the user's cart.
func (s *RecipeService) IsInShoppingCart(userID, recipeID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.Model(&models.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

// Favorite adds a favorite mark. Duplicate adds are conflicts, an
// unknown recipe is not found.
func (s *RecipeService) Favorite(userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}
	marked, err := s.IsFavorited(userID, recipeID)
	if err != nil {
		return nil, err
	}
	if marked {
		return nil, newConflictError("recipe is already in favorites")
	}
	if err := s.db.Create(&models.Favorite{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		// Concurrent duplicate adds race down to the unique constraint.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newConflictError("recipe is already in favorites")
		}
		return nil, err
	}
	return recipe, nil
}

// Unfavorite removes a favorite mark.
func (s *RecipeService) Unfavorite(userID, recipeID uint) error {
	if _, err := s.Get(recipeID); err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newConflictError("recipe is not in favorites")
	}
	return nil
}

// AddToShoppingCart adds a cart mark with the same semantics as Favorite.
func (s *RecipeService) AddToShoppingCart(userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}
	marked, err := s.IsInShoppingCart(userID, recipeID)
	if err != nil {
		return nil, err
	}
	if marked {
		return nil, newConflictError("recipe is already in the shopping cart")
	}
	if err := s.db.Create(&models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newConflictError("recipe is already in the shopping cart")
		}
		return nil, err
	}
	return recipe, nil
}

// RemoveFromShoppingCart removes a cart mark.
func (s *RecipeService) RemoveFromShoppingCart(userID, recipeID uint) error {
	if _, err := s.Get(recipeID); err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newConflictError("recipe is not in the shopping cart")
	}
	return nil
}

// ImageURL resolves a recipe image object name to a public URL.
func (s *RecipeService) ImageURL(recipe *models.Recipe) string {
	return s.images.URL(recipe.Image)
}
