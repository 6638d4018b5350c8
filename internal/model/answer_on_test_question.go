package model

import "time"

// AnswerOnTestQuestion 一次测试尝试中的单个题目位置及其评分状态
type AnswerOnTestQuestion struct {
	BaseModel

	TestID     uint `gorm:"uniqueIndex:idx_slot_attempt_number;not null" json:"testId"`
	UserID     uint `gorm:"uniqueIndex:idx_slot_attempt_number;not null" json:"userId"`
	Attempt    int  `gorm:"uniqueIndex:idx_slot_attempt_number;not null" json:"attempt"`
	Number     int  `gorm:"uniqueIndex:idx_slot_attempt_number;not null" json:"number"`
	QuestionID uint `gorm:"index;not null" json:"questionId"`

	Points       *int       `json:"points"`
	Time         *time.Time `json:"time"` // 提交时间，同时作为“已作答”标记
	AnswerString string     `gorm:"type:text" json:"answerString"`
	TestEnded    bool       `gorm:"index;default:false" json:"testEnded"`
}

func (AnswerOnTestQuestion) TableName() string {
	return "answers_on_test_questions"
}

func (a *AnswerOnTestQuestion) IsAnswered() bool {
	return a.Time != nil
}

func (a *AnswerOnTestQuestion) Status() QuestionStatus {
	if a.Time == nil {
		return NotPassed
	}
	if a.Points != nil && *a.Points > 0 {
		return Success
	}
	return Failed
}
