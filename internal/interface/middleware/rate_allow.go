package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limit for loopback and private-range clients
// (health checks, the email worker, internal tooling).
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowAuthenticated bypasses the limit once the request authenticator has resolved a caller.
func AllowAuthenticated() AllowFunc {
	return func(c *gin.Context) bool {
		_, ok := CurrentUserID(c)
		return ok
	}
}
