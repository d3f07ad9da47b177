package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/respond"
)

const (
	principalKey = "principal"
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Auth verifies an optional bearer token and stores the caller principal in
// context. Requests without a token continue as the anonymous principal so
// row-level policies decide what they may see.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Set(principalKey, auth.Principal{})
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, raw, err := auth.VerifyJWT(token, secret)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		p := auth.FromClaims(claims, token, raw)
		c.Set(principalKey, p)
		c.Set(userIDKey, p.UserID)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Next()
	}
}

// RequireUserOn rejects anonymous callers with 401 {"error"} on the listed
// "METHOD /full/path" routes. Other routes pass through and rely on
// row-level policies.
func RequireUserOn(routes map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if routes[c.Request.Method+" "+c.FullPath()] && PrincipalFromContext(c).Anonymous() {
			respond.Fail(c, http.StatusUnauthorized, "Login required")
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns the principal set by Auth, or the anonymous
// principal. It never returns the service principal.
func PrincipalFromContext(c *gin.Context) auth.Principal {
	if c == nil {
		return auth.Principal{}
	}
	val, _ := c.Get(principalKey)
	p, ok := val.(auth.Principal)
	if !ok || p.Elevated() {
		return auth.Principal{}
	}
	return p
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return PrincipalFromContext(c).UserID
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
