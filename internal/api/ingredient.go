package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// IngredientHandler serves the read-only ingredient catalog with a
// case-insensitive name prefix filter for autocomplete.
type IngredientHandler struct {
	db *gorm.DB
}

func NewIngredientHandler(db *gorm.DB) *IngredientHandler {
	return &IngredientHandler{db: db}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("", h.List)
		ingredients.GET("/:id", h.Get)
	}
}

func (h *IngredientHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Ingredient{}).Order("name")
	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE ?", strings.ToLower(name)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		abortWithError(c, err)
		return
	}
	views := make([]IngredientView, 0, len(ingredients))
	for _, i := range ingredients {
		views = append(views, ingredientView(i))
	}
	c.JSON(http.StatusOK, views)
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	var ingredient models.Ingredient
	if err := h.db.First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredientView(ingredient))
}
