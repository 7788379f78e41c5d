package repository

import (
	"coursecms/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(c *models.Course) error {
	return r.db.Create(c).Error
}

func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var c models.Course
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns courses newest first, optionally filtered by category.
func (r *CourseRepository) List(category string) ([]models.Course, error) {
	q := r.db.Model(&models.Course{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var list []models.Course
	err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *CourseRepository) Update(c *models.Course) error {
	return r.db.Save(c).Error
}

// Delete removes the course and its lessons. Callers run it inside a transaction.
func (r *CourseRepository) Delete(id uint) error {
	if err := r.db.Where("course_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Course{}, id).Error
}

func (r *CourseRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Course{}).Count(&n).Error
	return n, err
}

func (r *CourseRepository) CreateLesson(l *models.Lesson) error {
	return r.db.Create(l).Error
}

func (r *CourseRepository) GetLesson(id uint) (*models.Lesson, error) {
	var l models.Lesson
	err := r.db.First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *CourseRepository) UpdateLesson(l *models.Lesson) error {
	return r.db.Save(l).Error
}

func (r *CourseRepository) DeleteLesson(id uint) error {
	return r.db.Delete(&models.Lesson{}, id).Error
}

// ListLessons returns a course's lessons in play order.
func (r *CourseRepository) ListLessons(courseID uint) ([]models.Lesson, error) {
	var list []models.Lesson
	err := r.db.Where("course_id = ?", courseID).Order("order_number ASC").Find(&list).Error
	return list, err
}

func (r *CourseRepository) CountLessons(courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}
