package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"recipeshop/internal/auth"
	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/logger"
	"recipeshop/internal/policy"
)

// fail maps a domain error onto an echo HTTP error carrying an ErrorResponse.
// Unexpected errors are logged and reported as 500.
func fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bindAndValidate decodes the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_ERROR",
		})
	}
	if err := c.Validate(req); err != nil {
		return fail(c, err)
	}
	return nil
}

// idParam parses the numeric :id path parameter. Malformed ids cannot match
// a row, so they are reported as not found.
func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fail(c, apperrors.ErrNotFound)
	}
	return uint(id), nil
}

func uuidParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fail(c, apperrors.ErrNotFound)
	}
	return id, nil
}

func caller(c echo.Context) policy.Caller {
	return auth.CallerFrom(c)
}
