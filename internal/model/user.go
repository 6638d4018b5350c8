package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name    string   `gorm:"size:100;not null" json:"name"`
	Email   string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Role    UserRole `gorm:"size:20;default:'student'" json:"role"`
	GroupID *uint    `gorm:"index" json:"groupId,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsLecturer 教师与管理员都视为讲师
func (u *User) IsLecturer() bool {
	return u.Role == Teacher || u.Role == Admin
}
