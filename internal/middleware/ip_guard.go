package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ParseAllowedIPs splits a comma separated RESTRICTED_IPS value
func ParseAllowedIPs(raw string) []string {
	var ips []string
	for _, part := range strings.Split(raw, ",") {
		if ip := strings.TrimSpace(part); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// IPAllowList rejects requests whose client IP is not listed. An empty list
// or a list containing "0" allows every client. The client IP comes from
// c.RealIP, so the echo instance must set an IPExtractor that does not trust
// forwarded headers from arbitrary peers.
func IPAllowList(allowed []string) echo.MiddlewareFunc {
	open := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		if ip == "0" {
			open = true
		}
		set[ip] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if open {
				return next(c)
			}

			clientIP := c.RealIP()
			if _, ok := set[clientIP]; !ok {
				log.Printf("[WARN] Rejected %s %s from %s", c.Request().Method, c.Request().URL.Path, clientIP)
				return echo.NewHTTPError(http.StatusForbidden, "This IP is not allowed to access this API")
			}

			return next(c)
		}
	}
}
