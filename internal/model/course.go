package model

// Course 课程信息
type Course struct {
	BaseModel
	CourseCode      string `gorm:"size:50;uniqueIndex;not null" json:"courseCode"`
	Title           string `gorm:"size:255;not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	Category        string `gorm:"size:50;index;not null" json:"category"`
	Difficulty      string `gorm:"size:20;index;default:beginner" json:"difficulty"`
	DurationMinutes int    `gorm:"not null" json:"durationMinutes"`
	Instructor      string `gorm:"size:100" json:"instructor"`
	IsActive        bool   `gorm:"default:true" json:"isActive"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseCatalogItem 课程目录聚合行（含报名/完成/离段统计）
type CourseCatalogItem struct {
	CourseID         uint    `json:"courseId"`
	CourseCode       string  `json:"courseCode"`
	Title            string  `json:"title"`
	Category         string  `json:"category"`
	Difficulty       string  `json:"difficulty"`
	TotalEnrollments int     `json:"totalEnrollments"`
	Completions      int     `json:"completions"`
	Dropouts         int     `json:"dropouts"`
	CompletionRate   float64 `json:"completionRate"`
	DropoutRate      float64 `json:"dropoutRate"`
}
