package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecipeEndpoint(t *testing.T) {
	env := setupTest(t)
	user, token := env.register(t, "author")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")

	w := env.do(t, http.MethodPost, "/api/recipes", token, recipePayload(tag, flour))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)

	assert.Equal(t, "Pancakes", body["name"])
	assert.EqualValues(t, 10, body["cooking_time"])
	assert.Equal(t, false, body["is_favorited"])
	assert.Equal(t, false, body["is_in_shopping_cart"])
	assert.Contains(t, body["image"], "recipe_images/")

	author, ok := body["author"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, user.ID, author["id"])
	assert.Equal(t, "author", author["username"])

	tags, ok := body["tags"].([]interface{})
	require.True(t, ok)
	require.Len(t, tags, 1)
	first, _ := tags[0].(map[string]interface{})
	assert.Equal(t, "breakfast", first["slug"])

	ingredients, ok := body["ingredients"].([]interface{})
	require.True(t, ok)
	require.Len(t, ingredients, 1)
	entry, _ := ingredients[0].(map[string]interface{})
	assert.Equal(t, "flour", entry["name"])
	assert.Equal(t, "g", entry["measurement_unit"])
	assert.EqualValues(t, 2, entry["amount"])
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	env := setupTest(t)
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")

	w := env.do(t, http.MethodPost, "/api/recipes", "", recipePayload(tag, flour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationErrors(t *testing.T) {
	env := setupTest(t)
	_, token := env.register(t, "author")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")

	payload := recipePayload(tag, flour)
	payload["tags"] = []uint{}
	w := env.do(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body, "tags")

	payload = recipePayload(tag, flour)
	payload["ingredients"] = []map[string]interface{}{
		{"id": flour.ID, "amount": 0},
	}
	w = env.do(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Contains(t, body, "ingredients")

	payload = recipePayload(tag, flour)
	delete(payload, "image")
	w = env.do(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Contains(t, body, "image")
}

func TestGetRecipeAnonymous(t *testing.T) {
	env := setupTest(t)
	_, token := env.register(t, "author")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, token, recipePayload(tag, flour))

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Pancakes", body["name"])
	assert.Equal(t, false, body["is_favorited"])

	w = env.do(t, http.MethodGet, "/api/recipes/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRecipeEndpoint(t *testing.T) {
	env := setupTest(t)
	_, token := env.register(t, "author")
	_, otherToken := env.register(t, "other")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, token, recipePayload(tag, flour))

	payload := recipePayload(tag, flour)
	payload["name"] = "Crepes"
	delete(payload, "image")

	path := fmt.Sprintf("/api/recipes/%d", id)

	// Non-author gets a 403.
	w := env.do(t, http.MethodPatch, path, otherToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Anonymous gets a 401.
	w = env.do(t, http.MethodPatch, path, "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPatch, path, token, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Crepes", body["name"])
	assert.Contains(t, body["image"], "recipe_images/")
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	env := setupTest(t)
	_, token := env.register(t, "author")
	_, otherToken := env.register(t, "other")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, token, recipePayload(tag, flour))

	path := fmt.Sprintf("/api/recipes/%d", id)

	w := env.do(t, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteEndpoint(t *testing.T) {
	env := setupTest(t)
	_, authorToken := env.register(t, "author")
	_, token := env.register(t, "user")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, authorToken, recipePayload(tag, flour))

	path := fmt.Sprintf("/api/recipes/%d/favorite", id)

	w := env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.EqualValues(t, id, body["id"])
	assert.Equal(t, "Pancakes", body["name"])
	assert.EqualValues(t, 10, body["cooking_time"])
	// The short shape has no nested author.
	assert.NotContains(t, body, "author")

	// Second add is a 400.
	w = env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Contains(t, body, "errors")

	w = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Removing the absent mark is a 400.
	w = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown recipe is a 404 for both directions.
	w = env.do(t, http.MethodPost, "/api/recipes/9999/favorite", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/recipes/9999/favorite", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShoppingCartEndpoint(t *testing.T) {
	env := setupTest(t)
	_, authorToken := env.register(t, "author")
	_, token := env.register(t, "user")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, authorToken, recipePayload(tag, flour))

	path := fmt.Sprintf("/api/recipes/%d/shopping_cart", id)

	w := env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The recipe view reflects the cart mark for its owner only.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["is_in_shopping_cart"])

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["is_in_shopping_cart"])
}

func TestDownloadShoppingCart(t *testing.T) {
	env := setupTest(t)
	_, authorToken := env.register(t, "chef")
	_, token := env.register(t, "user")
	tag := env.createTag(t, "dinner")
	salt := env.createIngredient(t, "salt", "g")

	payload := recipePayload(tag, salt)
	payload["name"] = "Soup"
	payload["ingredients"] = []map[string]interface{}{
		{"id": salt.ID, "amount": 5},
	}
	soupID := env.createRecipe(t, authorToken, payload)

	payload = recipePayload(tag, salt)
	payload["name"] = "Bread"
	payload["ingredients"] = []map[string]interface{}{
		{"id": salt.ID, "amount": 3},
	}
	breadID := env.createRecipe(t, authorToken, payload)

	for _, id := range []uint{soupID, breadID} {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_cart.txt")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	content := w.Body.String()
	assert.Contains(t, content, "SHOPPING LIST")
	// Amounts are summed across cart recipes.
	assert.Contains(t, content, "1. Salt (g) - 8")
	assert.Contains(t, content, "Soup by chef")
	assert.Contains(t, content, "Bread by chef")

	// Requires authentication.
	w = env.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLinkEndpoint(t *testing.T) {
	env := setupTest(t)
	_, token := env.register(t, "author")
	tag := env.createTag(t, "breakfast")
	flour := env.createIngredient(t, "flour", "g")
	id := env.createRecipe(t, token, recipePayload(tag, flour))

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, fmt.Sprintf("http://localhost:8000/s/%x", id), body["short-link"])

	w = env.do(t, http.MethodGet, "/api/recipes/9999/get-link", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipesEndpoint(t *testing.T) {
	env := setupTest(t)
	alice, aliceToken := env.register(t, "alice")
	_, bobToken := env.register(t, "bob")
	breakfast := env.createTag(t, "breakfast")
	dinner := env.createTag(t, "dinner")
	flour := env.createIngredient(t, "flour", "g")

	payload := recipePayload(breakfast, flour)
	pancakesID := env.createRecipe(t, aliceToken, payload)

	payload = recipePayload(dinner, flour)
	payload["name"] = "Stew"
	env.createRecipe(t, bobToken, payload)

	// Full listing, newest first.
	w := env.do(t, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])
	results, _ := body["results"].([]interface{})
	require.Len(t, results, 2)
	first, _ := results[0].(map[string]interface{})
	assert.Equal(t, "Stew", first["name"])

	// Tag filter.
	w = env.do(t, http.MethodGet, "/api/recipes?tags=breakfast", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])

	w = env.do(t, http.MethodGet, "/api/recipes?tags=breakfast&tags=dinner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])

	// Author filter.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", alice.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])

	// Favorited filter needs authentication to bite.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", pancakesID), bobToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/recipes?is_favorited=1", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
	results, _ = body["results"].([]interface{})
	require.Len(t, results, 1)
	first, _ = results[0].(map[string]interface{})
	assert.Equal(t, true, first["is_favorited"])

	w = env.do(t, http.MethodGet, "/api/recipes?is_favorited=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])
}
