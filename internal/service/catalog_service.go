package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"coursecms/internal/models"
	"coursecms/internal/repository"
	"coursecms/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
}

type LessonInput struct {
	Title       string
	VideoURL    string
	Notes       string
	OrderNumber int
}

// LessonView is a lesson with the caller's completion state.
type LessonView struct {
	models.Lesson
	IsCompleted bool `json:"is_completed"`
}

type CourseDetail struct {
	Course  *models.Course `json:"course"`
	Access  string         `json:"access"`
	Lessons []LessonView   `json:"lessons,omitempty"`
}

type CatalogService struct {
	db         *gorm.DB
	courseRepo *repository.CourseRepository
	authz      *Authorizer
	cloud      cloudinary.Client
	folder     string
}

func NewCatalogService(db *gorm.DB, authz *Authorizer, cloud cloudinary.Client, folder string) *CatalogService {
	return &CatalogService{
		db:         db,
		courseRepo: repository.NewCourseRepository(db),
		authz:      authz,
		cloud:      cloud,
		folder:     folder,
	}
}

func (s *CatalogService) ListCourses(category string) ([]models.Course, error) {
	return s.courseRepo.List(category)
}

// GetCourse returns course metadata for anyone and lessons only for callers
// whose access allows content.
func (s *CatalogService) GetCourse(p *Principal, id uint) (*CourseDetail, error) {
	access, err := s.authz.CourseAccess(p, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(id)
	if err != nil {
		return nil, mapCourseErr(err)
	}
	detail := &CourseDetail{Course: course, Access: access.String()}
	if !access.CanViewContent() {
		return detail, nil
	}
	lessons, err := s.courseRepo.ListLessons(id)
	if err != nil {
		return nil, err
	}
	done := map[uint]bool{}
	if access == AccessEnrolled {
		done, err = repository.NewProgressRepository(s.db).CompletedLessonIDs(p.UserID, id)
		if err != nil {
			return nil, err
		}
	}
	detail.Lessons = make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		detail.Lessons = append(detail.Lessons, LessonView{Lesson: l, IsCompleted: done[l.ID]})
	}
	return detail, nil
}

func validateCourse(in CourseInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return fmt.Errorf("%w: price has more than two decimals", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateCourse(in CourseInput) (*models.Course, error) {
	if err := validateCourse(in); err != nil {
		return nil, err
	}
	c := &models.Course{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    in.ImageURL,
	}
	if err := s.courseRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCourse(id uint, in CourseInput) (*models.Course, error) {
	if err := validateCourse(in); err != nil {
		return nil, err
	}
	c, err := s.courseRepo.GetByID(id)
	if err != nil {
		return nil, mapCourseErr(err)
	}
	c.Title = strings.TrimSpace(in.Title)
	c.Description = strings.TrimSpace(in.Description)
	c.Price = in.Price
	c.Category = strings.TrimSpace(in.Category)
	if in.ImageURL != "" {
		c.ImageURL = in.ImageURL
	}
	if err := s.courseRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCourse removes a course with its lessons. Courses that were ever
// ordered stay, since orders and enrollments reference them.
func (s *CatalogService) DeleteCourse(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		courses := repository.NewCourseRepository(tx)
		if _, err := courses.GetByID(id); err != nil {
			return mapCourseErr(err)
		}
		n, err := repository.NewOrderRepository(tx).CountByCourse(id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrCourseHasOrders
		}
		return courses.Delete(id)
	})
}

// SetCourseImage uploads the image and stores its secure URL on the course.
func (s *CatalogService) SetCourseImage(ctx context.Context, id uint, file io.Reader) (*models.Course, error) {
	if s.cloud == nil {
		return nil, ErrUploadDisabled
	}
	c, err := s.courseRepo.GetByID(id)
	if err != nil {
		return nil, mapCourseErr(err)
	}
	folder := s.folder + "/" + strconv.FormatUint(uint64(id), 10)
	publicID := "cover_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := s.cloud.UploadImage(ctx, file, folder, publicID)
	if err != nil {
		return nil, fmt.Errorf("upload course image: %w", err)
	}
	old := c.ImageURL
	c.ImageURL = url
	if err := s.courseRepo.Update(c); err != nil {
		return nil, err
	}
	if old != "" && old != url {
		if err := s.cloud.DeleteByURL(ctx, old); err != nil {
			log.Printf("[catalog] delete old image for course %d: %v", id, err)
		}
	}
	return c, nil
}

func validateLesson(in LessonInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.VideoURL) == "" {
		return fmt.Errorf("%w: title and video_url are required", ErrValidation)
	}
	if in.OrderNumber < 1 {
		return fmt.Errorf("%w: order_number must be at least 1", ErrValidation)
	}
	return nil
}

func (s *CatalogService) ListLessons(courseID uint) ([]models.Lesson, error) {
	if _, err := s.courseRepo.GetByID(courseID); err != nil {
		return nil, mapCourseErr(err)
	}
	return s.courseRepo.ListLessons(courseID)
}

func (s *CatalogService) CreateLesson(courseID uint, in LessonInput) (*models.Lesson, error) {
	if err := validateLesson(in); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(courseID); err != nil {
		return nil, mapCourseErr(err)
	}
	l := &models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(in.Title),
		VideoURL:    strings.TrimSpace(in.VideoURL),
		Notes:       in.Notes,
		OrderNumber: in.OrderNumber,
	}
	if err := s.courseRepo.CreateLesson(l); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLessonOrderTaken
		}
		return nil, err
	}
	return l, nil
}

func (s *CatalogService) UpdateLesson(id uint, in LessonInput) (*models.Lesson, error) {
	if err := validateLesson(in); err != nil {
		return nil, err
	}
	l, err := s.courseRepo.GetLesson(id)
	if err != nil {
		return nil, mapLessonErr(err)
	}
	l.Title = strings.TrimSpace(in.Title)
	l.VideoURL = strings.TrimSpace(in.VideoURL)
	l.Notes = in.Notes
	l.OrderNumber = in.OrderNumber
	if err := s.courseRepo.UpdateLesson(l); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLessonOrderTaken
		}
		return nil, err
	}
	return l, nil
}

func (s *CatalogService) DeleteLesson(id uint) error {
	if _, err := s.courseRepo.GetLesson(id); err != nil {
		return mapLessonErr(err)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		return repository.NewCourseRepository(tx).DeleteLesson(id)
	})
}

func mapCourseErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCourseNotFound
	}
	return err
}

func mapLessonErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLessonNotFound
	}
	return err
}
