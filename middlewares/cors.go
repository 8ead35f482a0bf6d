package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORSMiddlewares allows the configured origins. With none configured every
// origin is allowed, without credentials.
func CORSMiddlewares(allowedOrigins []string) gin.HandlerFunc {
	options := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "Accept", "Origin",
			"Cache-Control", "X-Requested-With",
		},
		AllowCredentials: len(allowedOrigins) > 0,
		MaxAge:           600,
	}
	if len(allowedOrigins) == 0 {
		options.AllowedOrigins = []string{"*"}
	}
	handler := cors.New(options)

	return func(c *gin.Context) {
		handler.HandlerFunc(c.Writer, c.Request)

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
