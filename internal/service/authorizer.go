package service

import (
	"errors"

	"coursecms/internal/domain"
	"coursecms/internal/repository"

	"gorm.io/gorm"
)

// Access is the caller's standing on one course.
type Access int

const (
	AccessNone Access = iota
	AccessEnrolled
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessEnrolled:
		return "enrolled"
	case AccessAdmin:
		return "admin"
	default:
		return "none"
	}
}

// CanViewContent reports whether lessons and progress may be shown.
func (a Access) CanViewContent() bool {
	return a == AccessEnrolled || a == AccessAdmin
}

// Principal is the authenticated caller. A nil Principal is anonymous.
type Principal struct {
	UserID uint
	Role   string
}

type Authorizer struct {
	courseRepo     *repository.CourseRepository
	enrollmentRepo *repository.EnrollmentRepository
}

func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{
		courseRepo:     repository.NewCourseRepository(db),
		enrollmentRepo: repository.NewEnrollmentRepository(db),
	}
}

// CourseAccess returns ErrCourseNotFound for unknown courses so callers never
// leak content for ids that do not exist.
func (a *Authorizer) CourseAccess(p *Principal, courseID uint) (Access, error) {
	if _, err := a.courseRepo.GetByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AccessNone, ErrCourseNotFound
		}
		return AccessNone, err
	}
	if p == nil || p.UserID == 0 {
		return AccessNone, nil
	}
	if p.Role == domain.RoleAdmin {
		return AccessAdmin, nil
	}
	ok, err := a.enrollmentRepo.Exists(p.UserID, courseID)
	if err != nil {
		return AccessNone, err
	}
	if ok {
		return AccessEnrolled, nil
	}
	return AccessNone, nil
}
