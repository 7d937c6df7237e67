// Package auth resolves the authenticated principal for API requests.
//
// Session issuance and login flows live outside this service; clients present
// an API bearer token and the middleware resolves it to a user. Everything
// downstream consumes the principal from the request context.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/booklib/server/internal/entities"
)

// Context keys for principal data
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyEmail  = "auth_email"
	ContextKeyRole   = "auth_role"
)

// UserResolver looks up users by API token.
type UserResolver interface {
	GetUserByToken(token string) (*entities.User, error)
}

// Middleware authenticates API requests via bearer tokens.
type Middleware struct {
	users       UserResolver
	publicPaths map[string]bool
}

// NewMiddleware creates an authentication middleware.
func NewMiddleware(users UserResolver) *Middleware {
	return &Middleware{
		users: users,
		publicPaths: map[string]bool{
			"/health":  true,
			"/ping":    true,
			"/metrics": true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		user := m.tryBearerAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyEmail, user.Email)
		c.Set(ContextKeyRole, user.Role)
		c.Next()
	}
}

// tryBearerAuth attempts to authenticate using a Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil
	}

	user, err := m.users.GetUserByToken(token)
	if err != nil {
		return nil
	}
	return user
}

// GetUserID retrieves the authenticated user's ID from the context.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetEmail retrieves the authenticated user's email from the context.
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextKeyEmail); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole retrieves the authenticated user's role from the context.
func GetRole(c *gin.Context) entities.Role {
	if role, exists := c.Get(ContextKeyRole); exists {
		if r, ok := role.(entities.Role); ok {
			return r
		}
	}
	return entities.RoleReader
}

// RequireAdmin aborts with 403 unless the authenticated principal is an
// administrator.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != entities.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "administrator access required",
			})
			return
		}
		c.Next()
	}
}
