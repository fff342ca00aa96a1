package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "callerID"

// Authenticator accepts HMAC-signed JWTs or static bearer tokens.
// A static token may be bound to a user as "token:userID".
type Authenticator struct {
	secret []byte
	static map[string]string
}

func NewAuthenticator(jwtSecret string, staticTokens []string) *Authenticator {
	a := &Authenticator{static: make(map[string]string, len(staticTokens))}
	if s := strings.TrimSpace(jwtSecret); s != "" {
		a.secret = []byte(s)
	}
	for _, t := range staticTokens {
		tok, user, _ := strings.Cut(strings.TrimSpace(t), ":")
		if tok != "" {
			a.static[tok] = user
		}
	}
	return a
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's user ID (possibly empty for unbound static tokens) in the context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if a.secret != nil {
			if userID, ok := a.parseJWT(tokenStr); ok {
				c.Set(callerKey, userID)
				c.Next()
				return
			}
		}

		// static tokens
		if userID, ok := a.static[tokenStr]; ok {
			c.Set(callerKey, userID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
	}
}

func (a *Authenticator) parseJWT(tokenStr string) (string, bool) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return a.secret, nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil {
		return "", false
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id, true
	}
	sub, _ := claims.GetSubject()
	return sub, true
}

// CallerID returns the authenticated user ID, or "" when the caller is not bound to a user.
func CallerID(c *gin.Context) string {
	return c.GetString(callerKey)
}
