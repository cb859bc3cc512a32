package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// TagHandler serves the read-only tag catalog. Open and unpaginated.
type TagHandler struct {
	db *gorm.DB
}

func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{db: db}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	tags := router.Group("/tags")
	{
		tags.GET("", h.List)
		tags.GET("/:id", h.Get)
	}
}

func (h *TagHandler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("id").Find(&tags).Error; err != nil {
		abortWithError(c, err)
		return
	}
	views := make([]TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, tagView(t))
	}
	c.JSON(http.StatusOK, views)
}

func (h *TagHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagView(tag))
}
