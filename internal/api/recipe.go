package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

// RecipeHandler serves recipe CRUD, the favorite and shopping-cart
// toggles, short links and the shopping-list export.
type RecipeHandler struct {
	recipes  *service.RecipeService
	shopping *service.ShoppingListService
	auth     *service.AuthService
	views    *viewBuilder
	// baseURL is the public origin used to build absolute short links.
	baseURL string
	// limiter is optional; applied to mutations when redis is configured.
	limiter *middleware.RateLimiter
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	users *service.UserService,
	shopping *service.ShoppingListService,
	auth *service.AuthService,
	baseURL string,
	limiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		shopping: shopping,
		auth:     auth,
		views:    &viewBuilder{users: users, recipes: recipes},
		baseURL:  baseURL,
		limiter:  limiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuthMiddleware(h.auth)

	limit := func(c *gin.Context) { c.Next() }
	if h.limiter != nil {
		limit = h.limiter.RateLimitMiddleware()
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.List)
		recipes.POST("", required, limit, h.Create)
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.Get)
		recipes.PATCH("/:id", required, limit, h.Update)
		recipes.DELETE("/:id", required, h.Delete)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("/:id/favorite", required, h.Favorite)
		recipes.DELETE("/:id/favorite", required, h.Unfavorite)
		recipes.POST("/:id/shopping_cart", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
	}
}

func parseBool(value string) bool {
	switch value {
	case "1", "true", "True":
		return true
	}
	return false
}

func (h *RecipeHandler) List(c *gin.Context) {
	requesterID, _ := middleware.CurrentUserID(c)
	params := getPageParams(c)

	filter := service.RecipeFilter{
		TagSlugs:       c.QueryArray("tags"),
		Favorited:      parseBool(c.Query("is_favorited")),
		InShoppingCart: parseBool(c.Query("is_in_shopping_cart")),
		UserID:         requesterID,
	}
	if author := c.Query("author"); author != "" {
		if id, err := strconv.ParseUint(author, 10, 32); err == nil {
			filter.AuthorID = uint(id)
		}
	}

	recipes, total, err := h.recipes.List(filter, params.Offset(), params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]RecipeView, 0, len(recipes))
	for i := range recipes {
		view, err := h.views.recipe(&recipes[i], requesterID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		results = append(results, view)
	}
	c.JSON(http.StatusOK, paginate(c, total, params, results))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	requesterID, _ := middleware.CurrentUserID(c)

	recipe, err := h.recipes.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	view, err := h.views.recipe(recipe, requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var input service.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	// Author comes from the authenticated session, never the payload.
	recipe, err := h.recipes.Create(c.Request.Context(), userID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	view, err := h.views.recipe(recipe, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var input service.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, userID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	view, err := h.views.recipe(recipe, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	if err := h.recipes.Delete(id, userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.mark(c, h.recipes.Favorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.unmark(c, h.recipes.Unfavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.mark(c, h.recipes.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.unmark(c, h.recipes.RemoveFromShoppingCart)
}

// mark handles both add-toggles: 201 with the short recipe on success,
// 400 on duplicates, 404 on unknown recipes.
func (h *RecipeHandler) mark(c *gin.Context, add func(userID, recipeID uint) (*models.Recipe, error)) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	recipe, err := add(userID, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.views.shortRecipe(recipe))
}

// unmark handles both remove-toggles: 204 on success, 400 when the
// mark was absent, 404 on unknown recipes.
func (h *RecipeHandler) unmark(c *gin.Context, remove func(userID, recipeID uint) error) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	if err := remove(userID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink returns the absolute short link for a recipe.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if _, err := h.recipes.Get(id); err != nil {
		abortWithError(c, err)
		return
	}
	link := fmt.Sprintf("%s/s/%s", h.baseURL, service.EncodeShortLink(id))
	c.JSON(http.StatusOK, gin.H{"short-link": link})
}

// DownloadShoppingCart exports the aggregated list as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	content, err := h.shopping.Export(userID, time.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", service.ShoppingCartFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}
