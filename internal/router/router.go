package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// Deps carries everything the route tree needs.
type Deps struct {
	DB       *gorm.DB
	Auth     *service.AuthService
	Users    *service.UserService
	Recipes  *service.RecipeService
	Shopping *service.ShoppingListService

	// BaseURL is the public origin used in short links.
	BaseURL string
	// MediaRoot, when set, is served under /media (local image store).
	MediaRoot string
	// Limiter is optional; enables rate limiting on recipe writes.
	Limiter *middleware.RateLimiter
}

// Setup configures the application routes.
func Setup(deps Deps) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.MediaRoot != "" {
		router.Static("/media", deps.MediaRoot)
	}

	apiGroup := router.Group("/api")
	api.NewAuthHandler(deps.Auth).RegisterRoutes(apiGroup)
	api.NewUserHandler(deps.Users, deps.Recipes, deps.Auth).RegisterRoutes(apiGroup)
	api.NewRecipeHandler(deps.Recipes, deps.Users, deps.Shopping, deps.Auth, deps.BaseURL, deps.Limiter).RegisterRoutes(apiGroup)
	api.NewTagHandler(deps.DB).RegisterRoutes(apiGroup)
	api.NewIngredientHandler(deps.DB).RegisterRoutes(apiGroup)

	api.NewShortLinkHandler(deps.Recipes).RegisterRoutes(router)

	return router
}
