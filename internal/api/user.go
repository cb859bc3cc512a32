package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// UserHandler serves registration, profiles, avatars and subscriptions.
type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
	views *viewBuilder
}

func NewUserHandler(users *service.UserService, recipes *service.RecipeService, auth *service.AuthService) *UserHandler {
	return &UserHandler{
		users: users,
		auth:  auth,
		views: &viewBuilder{users: users, recipes: recipes},
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuthMiddleware(h.auth)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optional, h.List)
		users.GET("/me", required, h.Me)
		users.POST("/set_password", required, h.SetPassword)
		users.PUT("/me/avatar", required, h.SetAvatar)
		users.DELETE("/me/avatar", required, h.DeleteAvatar)
		users.GET("/subscriptions", required, h.Subscriptions)
		users.GET("/:id", optional, h.Get)
		users.POST("/:id/subscribe", required, h.Subscribe)
		users.DELETE("/:id/subscribe", required, h.Unsubscribe)
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.auth.Register(service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":      user.Email,
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	requesterID, _ := middleware.CurrentUserID(c)
	params := getPageParams(c)

	users, total, err := h.users.List(params.Offset(), params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]UserView, 0, len(users))
	for i := range users {
		view, err := h.views.user(&users[i], requesterID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		results = append(results, view)
	}
	c.JSON(http.StatusOK, paginate(c, total, params, results))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	requesterID, _ := middleware.CurrentUserID(c)

	user, err := h.users.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	view, err := h.views.user(user, requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.users.Get(userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	view, err := h.views.user(user, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.auth.SetPassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type avatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"avatar": []string{"avatar image is required"}})
		return
	}

	url, err := h.users.SetAvatar(c.Request.Context(), userID, req.Avatar)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.users.DeleteAvatar(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads the optional ?recipes_limit= cap for nested
// recipe lists; 0 means unlimited.
func recipesLimit(c *gin.Context) int {
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v > 0 {
		return v
	}
	return 0
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	authorID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	author, err := h.users.Subscribe(userID, authorID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	view, err := h.views.subscription(author, userID, recipesLimit(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	authorID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	if err := h.users.Unsubscribe(userID, authorID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	params := getPageParams(c)
	limit := recipesLimit(c)

	authors, total, err := h.users.Subscriptions(userID, params.Offset(), params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]SubscriptionView, 0, len(authors))
	for i := range authors {
		view, err := h.views.subscription(&authors[i], userID, limit)
		if err != nil {
			abortWithError(c, err)
			return
		}
		results = append(results, view)
	}
	c.JSON(http.StatusOK, paginate(c, total, params, results))
}
