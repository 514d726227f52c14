package model

type UserRole string

const (
	Admin  UserRole = "admin"
	Viewer UserRole = "viewer"
)

// User 平台账号，用于访问分析接口
type User struct {
	BaseModel
	Username string   `gorm:"size:100;not null" json:"username"`
	Email    string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:viewer" json:"role"`
}

func (User) TableName() string {
	return "users"
}
