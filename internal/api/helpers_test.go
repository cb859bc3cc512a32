package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
)

type testEnv struct {
	db      *gorm.DB
	engine  *gin.Engine
	auth    *service.AuthService
	users   *service.UserService
	recipes *service.RecipeService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	images := service.NewImageService(storage.NewLocalStore(t.TempDir(), "/media"))
	auth := service.NewAuthService(db, "test-secret")
	users := service.NewUserService(db, images, "user_avatars/default.jpg")
	recipes := service.NewRecipeService(db, images)
	shopping := service.NewShoppingListService(db)

	engine := gin.New()
	apiGroup := engine.Group("/api")
	NewAuthHandler(auth).RegisterRoutes(apiGroup)
	NewUserHandler(users, recipes, auth).RegisterRoutes(apiGroup)
	NewRecipeHandler(recipes, users, shopping, auth, "http://localhost:8000", nil).RegisterRoutes(apiGroup)
	NewTagHandler(db).RegisterRoutes(apiGroup)
	NewIngredientHandler(db).RegisterRoutes(apiGroup)
	NewShortLinkHandler(recipes).RegisterRoutes(engine)

	return &testEnv{
		db:      db,
		engine:  engine,
		auth:    auth,
		users:   users,
		recipes: recipes,
	}
}

// register creates an account through the auth service and returns the
// user with a valid token.
func (env *testEnv) register(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user, err := env.auth.Register(service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "Qwerty123",
	})
	require.NoError(t, err)
	token, err := env.auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var body []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func testImagePayload() string {
	pixel := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pixel)
}

func (env *testEnv) createTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Slug: name}
	require.NoError(t, env.db.Create(&tag).Error)
	return &tag
}

func (env *testEnv) createIngredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, env.db.Create(&ingredient).Error)
	return &ingredient
}

func recipePayload(tag *models.Tag, ingredient *models.Ingredient) map[string]interface{} {
	return map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 10,
		"image":        testImagePayload(),
		"tags":         []uint{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": ingredient.ID, "amount": 2},
		},
	}
}

// createRecipe posts a recipe through the API and returns its id.
func (env *testEnv) createRecipe(t *testing.T, token string, payload map[string]interface{}) uint {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	id, ok := body["id"].(float64)
	require.True(t, ok, fmt.Sprintf("missing id in %v", body))
	return uint(id)
}
