package model

import "time"

// TestUnlock 允许学生参加受限测试，测试结束后删除（自学测试除外）
type TestUnlock struct {
	BaseModel

	TestID    uint       `gorm:"uniqueIndex:idx_unlock_test_student;not null" json:"testId"`
	StudentID uint       `gorm:"uniqueIndex:idx_unlock_test_student;not null" json:"studentId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	Test    *Test `gorm:"foreignKey:TestID" json:"test,omitempty"`
	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (TestUnlock) TableName() string {
	return "test_unlocks"
}

func (u *TestUnlock) IsActive(now time.Time) bool {
	return u.ExpiresAt == nil || u.ExpiresAt.After(now)
}
