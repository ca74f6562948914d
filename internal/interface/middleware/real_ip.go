package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP sets the client IP into Gin context (key: "real_ip").
// With trustHeaders (the API runs behind Cloudflare or a load balancer) the priority is:
// 1) CF-Connecting-IP
// 2) X-Forwarded-For (left-most)
// 3) c.ClientIP()
// Without it only c.ClientIP() is used, so clients cannot pick their own rate-limit bucket.
func RealIP(trustHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", clientIP(c, trustHeaders))
		c.Next()
	}
}

func clientIP(c *gin.Context, trustHeaders bool) string {
	if trustHeaders {
		if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
			if ip := net.ParseIP(cf); ip != nil {
				return ip.String()
			}
		}
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	return c.ClientIP()
}
