package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// Context keys set by the auth middleware.
const (
	ContextKeySession = "session"
	ContextKeyRole    = "role"
)

// CookieName carries the signed session reference.
const CookieName = "gp_session"

// AuthMiddleware resolves the session cookie into a server-side session and
// a per-guild role.
type AuthMiddleware struct {
	redis  *redis.Client
	secret []byte
}

func NewAuthMiddleware(redisClient *redis.Client, secret string) *AuthMiddleware {
	return &AuthMiddleware{redis: redisClient, secret: []byte(secret)}
}

// sessionClaims is the cookie payload: only the session reference, never
// user data.
type sessionClaims struct {
	Ref string `json:"ref"`
	jwt.RegisteredClaims
}

// SignRef wraps a session reference in a signed cookie value.
func (m *AuthMiddleware) SignRef(ref string, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		Ref: ref,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *AuthMiddleware) parseRef(raw string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Ref == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Ref, nil
}

// Authenticate requires a valid session and resolves the caller's role for
// the guild named in the query (or the session's default guild).
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(CookieName)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing session",
				"code":  "missing_session",
			})
			return
		}

		ref, err := m.parseRef(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid session",
				"code":  "invalid_session",
			})
			return
		}

		session, err := m.redis.GetSession(c.Request.Context(), ref)
		if err != nil || session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired",
				"code":  "session_expired",
			})
			return
		}

		role := session.Role
		if guildID := c.Query("guild_id"); guildID != "" {
			if resolved, err := m.redis.ResolveRole(c.Request.Context(), guildID, session.UserID); err == nil {
				role = resolved
			}
		}

		c.Set(ContextKeySession, session)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers; used by the backfill trigger and
// weight configuration endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextKeyRole) != redis.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin role required",
				"code":  "forbidden",
			})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the authenticated session, nil when absent.
func SessionFrom(c *gin.Context) *redis.Session {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil
	}
	s, _ := v.(*redis.Session)
	return s
}
