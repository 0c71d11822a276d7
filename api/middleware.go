package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
)

// RequireToken rejects requests whose Authorization header is not
// "Bearer <token>". An empty token rejects everything.
func RequireToken(token string) gin.HandlerFunc {
	expected := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if token == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request. It logs the matched route
// rather than the path so share tokens stay out of the log.
func RequestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "(no route)"
		}
		line := "%s %s -> %d (%s)"
		args := []interface{}{c.Request.Method, route, status, time.Since(started)}
		if status >= http.StatusInternalServerError {
			log.Errorf(line, args...)
		} else {
			log.Infof(line, args...)
		}
	}
}
