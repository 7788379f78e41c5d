package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"coursecms/internal/auth"
	"coursecms/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Anything unrecognised is
// logged and answered with the generic fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case service.IsSecurityRejection(err):
		status = http.StatusBadRequest
		if errors.Is(err, service.ErrInvalidSignature) {
			msg = service.ErrInvalidSignature.Error()
		} else {
			msg = service.ErrPayloadMismatch.Error()
		}
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrLessonOrderTaken),
		errors.Is(err, service.ErrCourseHasOrders):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCreds), errors.Is(err, auth.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotEnrolled):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrGatewayUnavailable):
		status, msg = http.StatusBadGateway, service.ErrGatewayUnavailable.Error()
	case errors.Is(err, service.ErrPartialFailure):
		status, msg = http.StatusInternalServerError, service.ErrPartialFailure.Error()
	case errors.Is(err, service.ErrUploadDisabled):
		status, msg = http.StatusServiceUnavailable, err.Error()
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
