package repository

import (
	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository interface {
	FindAll(includeInactive bool) ([]model.Course, error)
	FindByID(id string) (*model.Course, error)
	Upsert(course *model.Course) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) FindAll(includeInactive bool) ([]model.Course, error) {
	query := r.db.Order("title ASC")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var courses []model.Course
	if err := query.Find(&courses).Error; err != nil {
		logger.Error("Failed to find courses in database", err)
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.First(&course, "id = ?", id).Error; err != nil {
		logger.Error("Failed to find course by ID in database", err, map[string]interface{}{
			"course_id": id,
		})
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) Upsert(course *model.Course) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(course).Error; err != nil {
		logger.Error("Failed to upsert course in database", err, map[string]interface{}{
			"course_id": course.ID,
		})
		return err
	}
	return nil
}
