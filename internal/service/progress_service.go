package service

import (
	"context"
	"errors"
	"time"

	"coursecms/internal/models"
	"coursecms/internal/repository"

	"gorm.io/gorm"
)

type ProgressResult struct {
	LessonID         uint      `json:"lesson_id"`
	CourseID         uint      `json:"course_id"`
	AlreadyCompleted bool      `json:"already_completed"`
	CompletedAt      time.Time `json:"completed_at"`
}

// EnrollmentSummary is one enrolled course with the student's completion ratio.
type EnrollmentSummary struct {
	EnrollmentID     uint          `json:"enrollment_id"`
	EnrolledAt       time.Time     `json:"enrolled_at"`
	Course           models.Course `json:"course"`
	CompletedLessons int64         `json:"completed_lessons"`
	TotalLessons     int64         `json:"total_lessons"`
	Completion       float64       `json:"completion"`
}

type ProgressService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db, now: time.Now}
}

// MarkCompleted records a finished lesson. Enrollment is checked first, so a
// caller without one always gets ErrNotEnrolled. Marking the same lesson
// twice succeeds with AlreadyCompleted set.
func (s *ProgressService) MarkCompleted(ctx context.Context, userID, lessonID, courseID uint) (*ProgressResult, error) {
	db := s.db.WithContext(ctx)
	enrolled, err := repository.NewEnrollmentRepository(db).Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	lesson, err := repository.NewCourseRepository(db).GetLesson(lessonID)
	if err != nil {
		return nil, mapLessonErr(err)
	}
	if lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	p := &models.Progress{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    courseID,
		IsCompleted: true,
		CompletedAt: s.now(),
	}
	created, err := repository.NewProgressRepository(db).CreateIfAbsent(p)
	if err != nil {
		return nil, err
	}
	res := &ProgressResult{LessonID: lessonID, CourseID: courseID, AlreadyCompleted: !created, CompletedAt: p.CompletedAt}
	if !created {
		var existing models.Progress
		err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			res.CompletedAt = existing.CompletedAt
		}
	}
	return res, nil
}

// ListEnrollments returns the student's courses with completion ratios.
func (s *ProgressService) ListEnrollments(userID uint) ([]EnrollmentSummary, error) {
	list, err := repository.NewEnrollmentRepository(s.db).ListByUser(userID)
	if err != nil {
		return nil, err
	}
	courses := repository.NewCourseRepository(s.db)
	progress := repository.NewProgressRepository(s.db)
	out := make([]EnrollmentSummary, 0, len(list))
	for _, e := range list {
		total, err := courses.CountLessons(e.CourseID)
		if err != nil {
			return nil, err
		}
		done, err := progress.CountCompleted(userID, e.CourseID)
		if err != nil {
			return nil, err
		}
		ratio := 0.0
		if total > 0 {
			ratio = float64(done) / float64(total)
		}
		out = append(out, EnrollmentSummary{
			EnrollmentID:     e.ID,
			EnrolledAt:       e.CreatedAt,
			Course:           e.Course,
			CompletedLessons: done,
			TotalLessons:     total,
			Completion:       ratio,
		})
	}
	return out, nil
}
