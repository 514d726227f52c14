package service

import (
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/internal/repository"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

func (s *CourseService) GetByID(id uint) (*model.Course, error) {
	return s.CourseRepo.GetByID(id)
}

func (s *CourseService) Exists(id uint) (bool, error) {
	course, err := s.CourseRepo.GetByID(id)
	if err != nil {
		return false, err
	}
	return course != nil, nil
}
