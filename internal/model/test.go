package model

// swagger:model Test
type Test struct {
	BaseModel

	SubjectID        uint   `gorm:"index;not null" json:"subjectId"`
	Title            string `gorm:"size:255;not null" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	CountOfQuestions int    `gorm:"default:0" json:"countOfQuestions"`

	ForSelfStudy bool `gorm:"column:for_self_study;default:false" json:"forSelfStudy"`
	ForNN        bool `gorm:"column:for_nn;default:false" json:"forNN"`
	ForEUMK      bool `gorm:"column:for_eumk;default:false" json:"forEUMK"`
	BeforeEUMK   bool `gorm:"column:before_eumk;default:false" json:"beforeEUMK"`

	// SetTimeForAllTest 为 true 时 TimeForCompleting 单位为分钟（整套试卷），否则为秒（单题）
	SetTimeForAllTest bool `gorm:"default:false" json:"setTimeForAllTest"`
	TimeForCompleting int  `gorm:"default:0" json:"timeForCompleting"`

	Questions []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

// IsGated 非自学且非 EUMK 前置测试需要解锁
func (t *Test) IsGated() bool {
	return !t.ForSelfStudy && !t.BeforeEUMK
}
