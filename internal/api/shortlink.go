package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/service"
)

// ShortLinkHandler resolves /s/{code} redirects.
type ShortLinkHandler struct {
	recipes *service.RecipeService
}

func NewShortLinkHandler(recipes *service.RecipeService) *ShortLinkHandler {
	return &ShortLinkHandler{recipes: recipes}
}

// RegisterRoutes mounts the redirect outside the /api group.
func (h *ShortLinkHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/s/:code", h.Resolve)
}

func (h *ShortLinkHandler) Resolve(c *gin.Context) {
	id, err := service.DecodeShortLink(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if _, err := h.recipes.Get(id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/recipes/%d/", id))
}
