package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment 报名记录（User-Course 多对多）
type Enrollment struct {
	BaseModel
	UserID          uint             `gorm:"index:idx_enrollment_user_course,unique;not null" json:"userId"`
	CourseID        uint             `gorm:"index:idx_enrollment_user_course,unique;index;not null" json:"courseId"`
	Status          EnrollmentStatus `gorm:"size:20;index;default:active" json:"status"`
	ProgressPercent float64          `gorm:"default:0" json:"progressPercent"`
	EnrolledAt      time.Time        `json:"enrolledAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	DroppedAt       *time.Time       `json:"droppedAt,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
