package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

func SafeEnv(env string) (string, error) {
	// Lookup env variable, and error if not present
	res, present := os.LookupEnv(env)
	if !present {
		return "", fmt.Errorf("missing environment variable %s", env)
	}
	return res, nil
}

// clientIPHeaders is checked in order; the first non-empty value wins.
var clientIPHeaders = []string{"X-Forwarded-For", "CF-Connecting-IP"}

// ClientIP resolves the client identity from proxy-forwarding headers.
// Returns "" when no header is present; unidentified callers all share
// one quota bucket.
func ClientIP(c echo.Context) string {
	for _, h := range clientIPHeaders {
		if v := c.Request().Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}

func ExtractAPIKey(c echo.Context) (string, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid authentication format")
	}

	return parts[1], nil
}
