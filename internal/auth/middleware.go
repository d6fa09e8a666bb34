package auth

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/policy"
)

// ContextKey is where the access token claims are stored on the echo context.
const ContextKey = "user"

// Middleware authenticates bearer access tokens. It never touches the database;
// the caller identity comes from the claims alone.
func Middleware(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrInvalidToken.Error(),
					Code:  "INVALID_TOKEN",
				})
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: apperrors.ErrUnauthenticated.Error(),
				Code:  "UNAUTHENTICATED",
			})
		},
	})
}

// ClaimsFrom returns the claims stored by Middleware, if any.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ContextKey).(*Claims)
	return claims, ok && claims != nil
}

// CallerFrom resolves the policy caller for a request. Requests that passed
// no authentication yield the anonymous caller.
func CallerFrom(c echo.Context) policy.Caller {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return policy.Caller{}
	}
	return policy.Caller{UserID: claims.UserID, IsStaff: claims.IsStaff}
}

// Authorize enforces a policy rule for the route it guards.
func Authorize(rule policy.Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := rule.Check(CallerFrom(c)); err != nil {
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}
