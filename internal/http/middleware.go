package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"journal-api/internal/domain"
)

const contextUserKey = "journal.user"

// bearerToken extracts the token from the Authorization header, or "" when
// absent or not a Bearer scheme.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// optionalAuth resolves the caller when a valid access token is presented and
// stays silent otherwise. Absent or invalid tokens never abort the request;
// routes that need a caller stack requireAuth on top.
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if user, err := h.auth.UserByAccessToken(c.Request.Context(), token); err == nil {
				c.Set(contextUserKey, user)
			}
		}
		c.Next()
	}
}

// requireAuth aborts with 401 unless optionalAuth resolved a user. The reason
// (missing token, bad token, unknown subject) is never disclosed.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
