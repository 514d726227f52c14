package repository

import (
	"errors"
	"learning_dropout_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) GetByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) GetByCode(code string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("course_code = ?", code).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// catalogRow 目录聚合查询的扫描行
type catalogRow struct {
	CourseID         uint
	CourseCode       string
	Title            string
	Category         string
	Difficulty       string
	TotalEnrollments int
	Completions      int
	Dropouts         int
}

// CatalogSummary 课程目录聚合：每课程的报名、完课与离段人数
// 过滤与排序交给上层，这里只做一次集合聚合
func (r *CourseRepository) CatalogSummary() ([]model.CourseCatalogItem, error) {
	var rows []catalogRow
	err := r.DB.Raw(`
		SELECT c.id AS course_id,
		       c.course_code,
		       c.title,
		       c.category,
		       c.difficulty,
		       COUNT(DISTINCT e.user_id) AS total_enrollments,
		       COUNT(DISTINCT CASE WHEN e.status = 'completed' THEN e.user_id END) AS completions,
		       COUNT(DISTINCT CASE WHEN e.status = 'dropped' THEN e.user_id END) AS dropouts
		FROM courses c
		LEFT JOIN enrollments e ON c.id = e.course_id AND e.deleted_at IS NULL
		WHERE c.is_active = TRUE AND c.deleted_at IS NULL
		GROUP BY c.id, c.course_code, c.title, c.category, c.difficulty
		ORDER BY total_enrollments DESC`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]model.CourseCatalogItem, 0, len(rows))
	for _, row := range rows {
		item := model.CourseCatalogItem{
			CourseID:         row.CourseID,
			CourseCode:       row.CourseCode,
			Title:            row.Title,
			Category:         row.Category,
			Difficulty:       row.Difficulty,
			TotalEnrollments: row.TotalEnrollments,
			Completions:      row.Completions,
			Dropouts:         row.Dropouts,
		}
		items = append(items, item)
	}
	return items, nil
}
