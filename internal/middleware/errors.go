package middleware

import (
	"errors"
	"net/http"

	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL server error numbers we translate into client errors.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	internalServerMessage = "Internal Server Error"
)

// APIError carries the status and message the client should see, plus the
// underlying cause for the logs.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError builds an APIError.
func NewAPIError(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Err: err}
}

// Classify maps an error to the status code and message sent to the client.
// Anything unrecognised becomes a 500 with a fixed message.
func Classify(err error) (int, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Message
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, store.ErrEmptyUpdate):
		return http.StatusBadRequest, "No fields to update"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return http.StatusConflict, "Resource already exists"
		case mysqlNoReferencedRow:
			return http.StatusBadRequest, "Referenced record does not exist"
		case mysqlRowIsReferenced:
			return http.StatusConflict, "Resource is still referenced"
		}
	}

	return http.StatusInternalServerError, internalServerMessage
}

// ErrorHandler is the single place errors recorded with c.Error become
// responses. Handlers that already wrote a response are left alone.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := Classify(err)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ContextRequestID)),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", fields...)
		} else {
			log.Debug("Request rejected", fields...)
		}

		c.JSON(status, gin.H{"message": message})
	}
}

// Recovery turns panics into the same 500 body the error handler uses.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ContextRequestID)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": internalServerMessage})
	})
}
