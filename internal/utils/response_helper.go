package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// SendSuccessResponse sends a successful JSON response
func SendSuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.ErrorResponse{
		Code:    errCode,
		Message: message,
		Details: details,
	})
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, message, "")
}

// SendConflictError sends a 409 Conflict error
func SendConflictError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusConflict, models.ErrCodeConflict, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, message, details)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", details)
}

// SendServiceError maps a typed service error to its HTTP status and body
func SendServiceError(c *gin.Context, err error) {
	var svcErr *models.ServiceError
	if errors.As(err, &svcErr) {
		SendErrorResponse(c, models.HTTPStatusForErrorCode(svcErr.Code), svcErr.Code, svcErr.Message, "")
		return
	}
	SendInternalServerError(c, "Internal server error", err.Error())
}

// GetActorFromContext extracts the operator identity supplied by the caller.
// Authentication itself is out of scope; the gateway in front of this API
// sets the header.
func GetActorFromContext(c *gin.Context) string {
	actor, exists := c.Get("actorID")
	if !exists {
		return "system"
	}
	return actor.(string)
}

// SetContextValue sets a value in the Gin context
func SetContextValue(c *gin.Context, key string, value interface{}) {
	c.Set(key, value)
}
