package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			handler := AuthMiddleware("secret")
			handler(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	actorID := uuid.New()
	token, err := GenerateToken(actorID, RoleMerchant, testSecret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c.Request = req

	AuthMiddleware(testSecret)(c)

	assert.Equal(t, http.StatusOK, w.Code)

	gotID, ok := GetActorID(c)
	require.True(t, ok)
	assert.Equal(t, actorID, gotID)

	role, _ := c.Get("actor_role")
	assert.Equal(t, RoleMerchant, role)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		actorRole      any
		requiredRole   string
		expectedStatus int
	}{
		{"Correct role", RoleMerchant, RoleMerchant, http.StatusOK},
		{"Missing role", nil, RoleMerchant, http.StatusUnauthorized},
		{"Wrong role type", 123, RoleMerchant, http.StatusUnauthorized},
		{"Insufficient role", RoleInfluencer, RoleMerchant, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.actorRole != nil {
				c.Set("actor_role", tt.actorRole)
			}
			c.Request = httptest.NewRequest("GET", "/", nil)

			handler := RequireRole(tt.requiredRole)
			handler(c)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetActorIDMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActorID(c)
	assert.False(t, ok)
}
