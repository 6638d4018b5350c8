package model

import "time"

// swagger:model TestPassResult
type TestPassResult struct {
	BaseModel

	TestID    uint `gorm:"uniqueIndex:idx_pass_result_test_student;not null" json:"testId"`
	StudentID uint `gorm:"uniqueIndex:idx_pass_result_test_student;not null" json:"studentId"`
	Attempt   int  `gorm:"default:0" json:"attempt"`

	// StartTime 整卷计时模式下为尝试开始时间，单题计时模式下为当前题目开始时间
	StartTime time.Time `json:"startTime"`
	Points    *int      `json:"points"`
	Percent   *int      `json:"percent"`

	LastTimedQuestionID *uint  `json:"lastTimedQuestionId,omitempty"`
	Comment             string `gorm:"type:text" json:"comment"`

	TestName string `gorm:"-" json:"testName,omitempty"`
}

func (TestPassResult) TableName() string {
	return "test_pass_results"
}
