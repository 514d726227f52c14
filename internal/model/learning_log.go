package model

import "time"

// LearningLog 学习进度事件，只追加不修改
// 同一 (user_id, course_id) 内按 logged_at 排序即为事件时间线
type LearningLog struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"index:idx_log_user_course;not null" json:"userId"`
	CourseID         uint      `gorm:"index:idx_log_user_course;index:idx_log_course_progress;not null" json:"courseId"`
	ProgressPercent  float64   `gorm:"index:idx_log_course_progress;not null" json:"progressPercent"` // 0~100
	WatchDurationSec int       `gorm:"not null" json:"watchDurationSec"`
	SessionID        string    `gorm:"size:100" json:"sessionId"`
	IsDropout        bool      `gorm:"index;default:false" json:"isDropout"`
	DropoutReason    *string   `gorm:"size:255" json:"dropoutReason,omitempty"`
	LoggedAt         time.Time `gorm:"index;not null" json:"loggedAt"`
}

func (LearningLog) TableName() string {
	return "learning_logs"
}
