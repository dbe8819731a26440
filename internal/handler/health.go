package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the health probe
	"net/http" // net/http provides status codes and response helpers
	"time"     // time sets the probe deadline

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// WelcomeText is the body of GET /.
const WelcomeText = "welcome to summer camp"

// Welcome answers GET / with a plain text greeting.
func Welcome(c echo.Context) error {
	return c.String(http.StatusOK, WelcomeText)
}

// Pinger checks that a backing service is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness for load balancers and monitoring.
type HealthHandler struct {
	Ping Pinger // document store probe; nil means always healthy
}

// Health returns "ok" when the document store answers a ping within two
// seconds and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			c.Logger().Warnf("health: %v", err)
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
