package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparksblog/sparks/auth"
	"github.com/sparksblog/sparks/model"
	"github.com/sparksblog/sparks/utils"
	"github.com/sparksblog/sparks/utils/flag"
)

// Keys under which the resolved session and its raw token are stored in the
// gin context.
const (
	ContextSessionKey = "session"
	ContextTokenKey   = "session_token"
)

// Session resolves the session token in the http header (or query) field
// "token". A request without a token passes through as anonymous; a request
// with an invalid or expired token is rejected. On success the header field
// "token" is replaced with "sub" carrying the user's id.
func Session(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if flag.ByPassAuth {
			c.Next()
			return
		}

		token := c.Request.Header.Get("token")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.Next()
			return
		}

		session, err := service.Session(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code": utils.ErrorBackendRead,
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}
		if session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorTokenAuthFail,
				"msg":  "invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Request.Header.Del("token")
		c.Request.Header.Add("sub", session.UserID)
		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, token)

		// before request
		c.Next()
	}
}

// RequireUser aborts anonymous requests. Must run after Session.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextSessionKey); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorTokenAuthFail,
				"msg":  "sign in required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the resolved session, nil for anonymous requests.
func SessionFrom(c *gin.Context) *model.Session {
	if value, ok := c.Get(ContextSessionKey); ok {
		return value.(*model.Session)
	}
	return nil
}

// TokenFrom returns the raw session token of the request, empty when
// anonymous.
func TokenFrom(c *gin.Context) string {
	if value, ok := c.Get(ContextTokenKey); ok {
		return value.(string)
	}
	return ""
}
