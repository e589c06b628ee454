package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls cross-origin access to the dashboard API.
type CORSConfig struct {
	// AllowAll permits any origin; local development only.
	AllowAll bool
	// AllowedOrigins is the exact-match origin allowlist.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge string
	// AllowCredentials lets the session cookie cross origins.
	AllowCredentials bool
}

var DefaultCORSConfig = CORSConfig{
	AllowAll: false,
	AllowedOrigins: []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	},
	AllowedMethods: []string{
		"GET", "POST", "DELETE", "OPTIONS",
	},
	AllowedHeaders: []string{
		"Origin",
		"X-Requested-With",
		"Content-Type",
		"Accept",
	},
	ExposedHeaders: []string{
		"Content-Type",
		"Content-Disposition",
	},
	MaxAge:           "86400",
	AllowCredentials: true,
}

func CORS(extraOrigins ...string) gin.HandlerFunc {
	cfg := DefaultCORSConfig
	cfg.AllowedOrigins = append(cfg.AllowedOrigins, extraOrigins...)
	return CORSWithConfig(cfg)
}

func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if cfg.AllowAll {
			c.Header("Access-Control-Allow-Origin", "*")
			setCORSHeaders(c, cfg)
			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}
			c.Next()
			return
		}

		allowed := false
		for _, o := range cfg.AllowedOrigins {
			if origin == o {
				allowed = true
				break
			}
		}

		// Credentialed requests forbid the wildcard origin, so echo the
		// allowlisted origin back.
		if allowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		setCORSHeaders(c, cfg)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, cfg CORSConfig) {
	c.Header("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
	c.Header("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	if len(cfg.ExposedHeaders) > 0 {
		c.Header("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.MaxAge != "" {
		c.Header("Access-Control-Max-Age", cfg.MaxAge)
	}
	if cfg.AllowCredentials {
		c.Header("Access-Control-Allow-Credentials", "true")
	}
}
