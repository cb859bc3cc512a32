package api

import (
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

// View models. Read representations nest full tag/ingredient/author
// objects and carry per-requester booleans; write payloads only carry
// ids and amounts (service.RecipeInput).

type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

type TagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []TagView              `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

type ShortRecipeView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type SubscriptionView struct {
	UserView
	Recipes      []ShortRecipeView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

// viewBuilder projects entities into view models relative to the
// requesting user (0 for anonymous).
type viewBuilder struct {
	users   *service.UserService
	recipes *service.RecipeService
}

func (v *viewBuilder) user(u *models.User, requesterID uint) (UserView, error) {
	subscribed, err := v.users.IsSubscribed(requesterID, u.ID)
	if err != nil {
		return UserView{}, err
	}
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
		Avatar:       v.users.AvatarURL(u),
	}, nil
}

func tagView(t models.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func ingredientView(i models.Ingredient) IngredientView {
	return IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func (v *viewBuilder) shortRecipe(r *models.Recipe) ShortRecipeView {
	return ShortRecipeView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       v.recipes.ImageURL(r),
		CookingTime: r.CookingTime,
	}
}

func (v *viewBuilder) recipe(r *models.Recipe, requesterID uint) (RecipeView, error) {
	author, err := v.user(&r.Author, requesterID)
	if err != nil {
		return RecipeView{}, err
	}
	favorited, err := v.recipes.IsFavorited(requesterID, r.ID)
	if err != nil {
		return RecipeView{}, err
	}
	inCart, err := v.recipes.IsInShoppingCart(requesterID, r.ID)
	if err != nil {
		return RecipeView{}, err
	}

	tags := make([]TagView, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, tagView(t))
	}
	ingredients := make([]RecipeIngredientView, 0, len(r.Ingredients))
	for _, link := range r.Ingredients {
		ingredients = append(ingredients, RecipeIngredientView{
			ID:              link.IngredientID,
			Name:            link.Ingredient.Name,
			MeasurementUnit: link.Ingredient.MeasurementUnit,
			Amount:          link.Amount,
		})
	}

	return RecipeView{
		ID:               r.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            v.recipes.ImageURL(r),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}, nil
}

// subscription renders an author with a capped recipe list and the
// uncapped total count.
func (v *viewBuilder) subscription(author *models.User, requesterID uint, recipesLimit int) (SubscriptionView, error) {
	userView, err := v.user(author, requesterID)
	if err != nil {
		return SubscriptionView{}, err
	}
	recipes, err := v.recipes.ListByAuthor(author.ID, recipesLimit)
	if err != nil {
		return SubscriptionView{}, err
	}
	count, err := v.recipes.CountByAuthor(author.ID)
	if err != nil {
		return SubscriptionView{}, err
	}
	short := make([]ShortRecipeView, 0, len(recipes))
	for i := range recipes {
		short = append(short, v.shortRecipe(&recipes[i]))
	}
	return SubscriptionView{
		UserView:     userView,
		Recipes:      short,
		RecipesCount: count,
	}, nil
}
