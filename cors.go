package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORSMiddleware applies the CORS policy for origins and stops preflight
// requests before they reach the routes.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	policy := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			headerAPIKey, headerActor, headerChannelID, headerChannelMembers,
			"Mcp-Session-Id", "Mcp-Protocol-Version",
		},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})
	return func(c *gin.Context) {
		// Preflight requests are answered in full, status included, by the
		// policy.
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Abort()
			return
		}
		c.Next()
	}
}
