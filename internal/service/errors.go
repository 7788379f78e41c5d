package service

import "errors"

var (
	ErrValidation = errors.New("validation failed")

	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrUserNotFound = errors.New("user not found")

	ErrCourseNotFound   = errors.New("course not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrLessonOrderTaken = errors.New("order number already used in this course")
	ErrCourseHasOrders  = errors.New("course has orders and cannot be deleted")
	ErrUploadDisabled   = errors.New("image upload is not configured")

	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrPayloadMismatch    = errors.New("callback does not match order")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrPartialFailure     = errors.New("order could not be recorded, please retry")

	ErrNotificationNotFound = errors.New("unread notification not found")
)

// IsSecurityRejection reports errors that mean a callback was not trusted.
func IsSecurityRejection(err error) bool {
	return errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrPayloadMismatch)
}
