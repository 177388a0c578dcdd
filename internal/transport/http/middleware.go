package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learnhub-service/internal/app"
	"learnhub-service/internal/auth"
	"learnhub-service/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	principalKey    = "principal"
	requestIDKey    = "request_id"
)

// RequestID propagates or assigns an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}
		if p, ok := c.Get(principalKey); ok {
			fields = append(fields, "user_id", p.(app.Principal).UserID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "err", c.Errors.String())
		}
		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// Authenticate requires a valid bearer token and stores the caller's Principal.
// Websocket clients may pass the token as ?token=.
func Authenticate(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortWith(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}
		userID, _ := claims.UserID()
		c.Set(principalKey, app.Principal{UserID: userID, SessionID: claims.SessionID})
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query("token")
}

// RequireStaff checks the staff flag in the store, so revoking it takes effect
// without waiting for tokens to expire.
func RequireStaff(accounts *app.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.User(c.Request.Context(), principal(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !user.IsStaff {
			abortWith(c, http.StatusForbidden, "forbidden", "staff only")
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) app.Principal {
	p, _ := c.Get(principalKey)
	pr, _ := p.(app.Principal)
	return pr
}
