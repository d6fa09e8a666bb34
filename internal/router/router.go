package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"recipeshop/docs"
	"recipeshop/internal/auth"
	"recipeshop/internal/config"
	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/handler"
	"recipeshop/internal/logger"
	"recipeshop/internal/metrics"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/storage"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Product    *handler.ProductHandler
	Order      *handler.OrderHandler
	Recipe     *handler.RecipeHandler
	Tag        *handler.LabelHandler[model.Tag]
	Ingredient *handler.LabelHandler[model.Ingredient]
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, jwtService *auth.JWTService, disk storage.Disk, h Handlers) {
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler
	e.Validator = NewValidator()

	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger")
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: requestTimeout(cfg),
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if local, ok := disk.(*storage.Local); ok {
		e.Static("/media", local.Root())
	}

	api := e.Group("/api")

	// Authentication
	throttle := authRateLimiter(cfg)
	api.POST("/login", h.Auth.Login, throttle...)
	api.POST("/login/admin", h.Auth.AdminLogin, throttle...)
	api.POST("/token/refresh", h.Auth.Refresh, throttle...)
	api.POST("/token/verify", h.Auth.Verify, throttle...)
	api.POST("/logout", h.Auth.Logout, throttle...)

	r := routes{group: api, jwt: jwtService}

	// Users
	r.add(http.MethodPost, "/user/create", h.User.Create, policy.Account, policy.ActionCreate)
	r.add(http.MethodGet, "/user/me", h.User.Me, policy.Account, policy.ActionRetrieve)
	r.add(http.MethodPut, "/user/me", h.User.UpdateMe, policy.Account, policy.ActionUpdate)
	r.add(http.MethodPatch, "/user/me", h.User.PatchMe, policy.Account, policy.ActionPartialUpdate)
	r.add(http.MethodGet, "/user/admin/list", h.User.AdminList, policy.Users, policy.ActionList)
	r.add(http.MethodGet, "/user/admin/user/:id", h.User.AdminGet, policy.Users, policy.ActionRetrieve)
	r.add(http.MethodPut, "/user/admin/user/:id", h.User.AdminUpdate, policy.Users, policy.ActionUpdate)
	r.add(http.MethodPatch, "/user/admin/user/:id", h.User.AdminPatch, policy.Users, policy.ActionPartialUpdate)
	r.add(http.MethodDelete, "/user/admin/user/:id", h.User.AdminDelete, policy.Users, policy.ActionDestroy)

	// Catalog
	r.add(http.MethodGet, "/products", h.Product.List, policy.Products, policy.ActionList)
	r.add(http.MethodGet, "/products/info", h.Product.Info, policy.Products, policy.ActionInfo)
	r.add(http.MethodGet, "/products/:id", h.Product.Get, policy.Products, policy.ActionRetrieve)
	r.add(http.MethodPost, "/products", h.Product.Create, policy.Products, policy.ActionCreate)
	r.add(http.MethodPut, "/products/:id", h.Product.Update, policy.Products, policy.ActionUpdate)
	r.add(http.MethodPatch, "/products/:id", h.Product.Patch, policy.Products, policy.ActionPartialUpdate)
	r.add(http.MethodDelete, "/products/:id", h.Product.Delete, policy.Products, policy.ActionDestroy)

	// Orders
	r.add(http.MethodGet, "/orders", h.Order.List, policy.Orders, policy.ActionList)
	r.add(http.MethodPost, "/orders", h.Order.Create, policy.Orders, policy.ActionCreate)
	r.add(http.MethodGet, "/orders/:id", h.Order.Get, policy.Orders, policy.ActionRetrieve)
	r.add(http.MethodPut, "/orders/:id", h.Order.Update, policy.Orders, policy.ActionUpdate)
	r.add(http.MethodPatch, "/orders/:id", h.Order.Patch, policy.Orders, policy.ActionPartialUpdate)
	r.add(http.MethodDelete, "/orders/:id", h.Order.Delete, policy.Orders, policy.ActionDestroy)

	// Recipes
	r.add(http.MethodGet, "/recipe/recipes", h.Recipe.List, policy.Recipes, policy.ActionList)
	r.add(http.MethodPost, "/recipe/recipes", h.Recipe.Create, policy.Recipes, policy.ActionCreate)
	r.add(http.MethodGet, "/recipe/recipes/:id", h.Recipe.Get, policy.Recipes, policy.ActionRetrieve)
	r.add(http.MethodPut, "/recipe/recipes/:id", h.Recipe.Update, policy.Recipes, policy.ActionUpdate)
	r.add(http.MethodPatch, "/recipe/recipes/:id", h.Recipe.Patch, policy.Recipes, policy.ActionPartialUpdate)
	r.add(http.MethodDelete, "/recipe/recipes/:id", h.Recipe.Delete, policy.Recipes, policy.ActionDestroy)
	r.add(http.MethodPost, "/recipe/recipes/:id/upload-image", h.Recipe.UploadImage, policy.Recipes, policy.ActionUploadImage)

	// Tags and ingredients
	registerLabels(r, "/tags", policy.Tags, h.Tag)
	registerLabels(r, "/ingredients", policy.Ingredients, h.Ingredient)
}

type labelRoutes interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Patch(echo.Context) error
	Delete(echo.Context) error
}

func registerLabels(r routes, prefix string, res policy.Resource, h labelRoutes) {
	r.add(http.MethodGet, prefix, h.List, res, policy.ActionList)
	r.add(http.MethodPost, prefix, h.Create, res, policy.ActionCreate)
	r.add(http.MethodGet, prefix+"/:id", h.Get, res, policy.ActionRetrieve)
	r.add(http.MethodPut, prefix+"/:id", h.Update, res, policy.ActionUpdate)
	r.add(http.MethodPatch, prefix+"/:id", h.Patch, res, policy.ActionPartialUpdate)
	r.add(http.MethodDelete, prefix+"/:id", h.Delete, res, policy.ActionDestroy)
}

// routes mounts handlers behind the guard their policy rule asks for.
type routes struct {
	group *echo.Group
	jwt   *auth.JWTService
}

func (r routes) add(method, path string, h echo.HandlerFunc, res policy.Resource, action policy.Action) {
	r.group.Add(method, path, h, r.guard(res, action)...)
}

// guard returns the middleware enforcing the rule for (res, action). Public
// routes skip token parsing entirely.
func (r routes) guard(res policy.Resource, action policy.Action) []echo.MiddlewareFunc {
	rule, ok := policy.RuleFor(res, action)
	if !ok {
		logger.L().Warn("no policy rule, defaulting to staff only",
			zap.String("resource", string(res)), zap.String("action", string(action)))
	}
	if rule.Access == policy.Public {
		return nil
	}
	return []echo.MiddlewareFunc{auth.Middleware(r.jwt), auth.Authorize(rule)}
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 10 * time.Second
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				logger.L().Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.L().Info("request", fields...)
			return nil
		},
	})
}

// errorHandler renders every error as an ErrorResponse.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := apperrors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case apperrors.ErrorResponse:
			body = msg
		case string:
			body = apperrors.ErrorResponse{Error: msg, Code: codeFor(status)}
		default:
			body = apperrors.ErrorResponse{Error: http.StatusText(status), Code: codeFor(status)}
		}
	} else {
		logger.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.L().Warn("failed to write error response", zap.Error(err))
	}
}

// authRateLimiter limits credential and token endpoints per client IP.
// A zero AuthRateLimit disables it.
func authRateLimiter(cfg *config.Config) []echo.MiddlewareFunc {
	if cfg.AuthRateLimit <= 0 {
		return nil
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.AuthRateLimit),
		Burst:     cfg.AuthRateBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiter(store)}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
