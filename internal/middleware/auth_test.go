package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	claims *TokenClaims
	err    error
}

func (s *stubValidator) ValidateToken(token string) (*TokenClaims, error) {
	return s.claims, s.err
}

func newAuthTestRouter(validator TokenValidator, optional bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mw := AuthMiddleware(validator)
	if optional {
		mw = OptionalAuthMiddleware(validator)
	}
	router.GET("/probe", mw, func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthTestRouter(&stubValidator{claims: &TokenClaims{UserID: 42}}, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	router := newAuthTestRouter(&stubValidator{err: errors.New("bad token")}, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	router := newAuthTestRouter(&stubValidator{claims: &TokenClaims{UserID: 42}}, true)

	// Anonymous requests pass through unauthenticated.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	// A valid token resolves the user.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer abc")
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestOptionalAuthMiddlewareIgnoresBadToken(t *testing.T) {
	router := newAuthTestRouter(&stubValidator{err: errors.New("bad token")}, true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
