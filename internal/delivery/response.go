package delivery

import (
	"errors"
	"net/http"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// ErrorResponseWithData reports a failure together with the current state,
// so a client can still render what it has.
func ErrorResponseWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
		Data:    data,
	})
}

func mapErrorToStatus(err error) int {
	var (
		validationErr *domain.ValidationError
		fetchErr      *domain.FetchError
		updateErr     *domain.UpdateError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrFormNotLoaded):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrFormClosed):
		return http.StatusGone
	case errors.As(err, &fetchErr), errors.As(err, &updateErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
