package http

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"copydesk/internal/domain"
)

// Response represents a standardized API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ErrorDetail is the machine-readable part of an error response
type ErrorDetail struct {
	Kind      domain.ErrorKind `json:"kind"`
	Code      domain.ErrorCode `json:"code,omitempty"`
	Retryable bool             `json:"retryable"`
	Step      string           `json:"step,omitempty"`
}

// SuccessResponse sends a success response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// SuccessMessageResponse sends a success response with a message
func SuccessMessageResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// CreatedResponse sends a 201 Created response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, message string, err interface{}) error {
	return c.JSON(statusCode, Response{
		Status:  "error",
		Message: message,
		Error:   err,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message, nil)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

// ForbiddenResponse sends a 403 Forbidden response
func ForbiddenResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusForbidden, message, nil)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message, nil)
}

// InternalServerErrorResponse sends a 500 Internal Server Error response
func InternalServerErrorResponse(c echo.Context, message string, err error) error {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return ErrorResponse(c, http.StatusInternalServerError, message, errMsg)
}

// AppErrorResponse maps a workflow error to its HTTP status and error body
func AppErrorResponse(c echo.Context, err error) error {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		return ErrorResponse(c, http.StatusInternalServerError, "Internal server error", ErrorDetail{
			Kind:      domain.KindPersistence,
			Retryable: true,
		})
	}

	status := statusForKind(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	return ErrorResponse(c, status, appErr.Message, ErrorDetail{
		Kind:      appErr.Kind,
		Code:      appErr.Code,
		Retryable: appErr.Retryable(),
		Step:      appErr.Step,
	})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
