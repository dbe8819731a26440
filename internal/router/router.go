package router // package router defines how HTTP routes are registered for the API

import (
	"time"

	"github.com/google/uuid"                        // request IDs
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // stock Echo middleware
	"github.com/redis/go-redis/v9"                  // shared client for the limiter

	"github.com/iliyamo/summer-camp-booking/internal/config"
	"github.com/iliyamo/summer-camp-booking/internal/handler"
	"github.com/iliyamo/summer-camp-booking/internal/middleware"
	"github.com/iliyamo/summer-camp-booking/internal/model"
	"github.com/iliyamo/summer-camp-booking/internal/service"
	"github.com/iliyamo/summer-camp-booking/internal/utils"
)

// Deps is everything RegisterRoutes needs.  Redis, Cache, RateLimit and
// Events may be left zero; the matching features are then disabled.
type Deps struct {
	Secret   string
	TokenTTL time.Duration
	Timeout  time.Duration

	Users handler.UserStore
	Menu  handler.MenuStore
	Carts handler.CartStore

	// Roles answers the role guards and may be cached.  FreshRoles answers
	// GET /users/role/:email straight from the store.
	Roles      service.RoleProvider
	FreshRoles service.RoleProvider
	RoleCache  service.RoleCache

	Ping   handler.Pinger
	Events service.EventPublisher

	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     *middleware.ResponseCache
}

// Use installs the global middleware chain: request id, panic recovery,
// access log, CORS, body limit and the rate limiter.
func Use(e *echo.Echo, d Deps) {
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s status=%d latency=%s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis, func(raw string) (utils.Identity, error) {
		return utils.ParseAccessToken(d.Secret, raw)
	}))
}

// RegisterRoutes binds the route table.  Guards run left to right: a valid
// token first, then the role, then ownership of the requested resource.
func RegisterRoutes(e *echo.Echo, d Deps) {
	fresh := d.FreshRoles
	if fresh == nil {
		fresh = d.Roles
	}

	auth := handler.NewAuthHandler(d.Secret, d.TokenTTL)
	users := handler.NewUserHandler(d.Users, fresh, d.RoleCache, d.Timeout)
	menu := handler.NewMenuHandler(d.Menu, d.Cache, d.Timeout)
	carts := handler.NewCartHandler(d.Carts, d.Events, d.Timeout)
	health := handler.HealthHandler{Ping: d.Ping}

	authn := middleware.JWTAuth(d.Secret)
	admin := middleware.RequireRole(d.Roles, model.RoleAdmin, d.Timeout)
	instructor := middleware.RequireRole(d.Roles, model.RoleInstructor, d.Timeout)
	owner := middleware.RequireOwner(middleware.QueryTarget("email"))

	e.GET("/", handler.Welcome)
	e.GET("/healthz", health.Health)

	e.POST("/jwt", auth.IssueJWT)

	e.GET("/users", users.ListUsers, authn, admin)
	e.POST("/users", users.CreateUser)
	e.DELETE("/users/:id", users.DeleteUser, authn, admin)
	e.GET("/users/role/:email", users.GetUserRole)
	e.PATCH("/users/role/:id", users.UpdateUserRole)

	e.GET(handler.MenuRoute, menu.ListMenu, d.Cache.Middleware())
	e.GET("/menu/:email", menu.ListInstructorMenu, authn, instructor)
	e.POST(handler.MenuRoute, menu.CreateMenuItem, authn, instructor)

	e.POST("/carts", carts.AddCartItem)
	e.GET("/carts", carts.ListCart, authn, owner)
	e.DELETE("/carts/:id", carts.DeleteCartItem)
}
