package model

type QuestionType int

const (
	SingleCorrect QuestionType = iota
	MultiCorrect
	TextAnswer
	SequenceAnswer
)

func (t QuestionType) String() string {
	switch t {
	case SingleCorrect:
		return "single_correct"
	case MultiCorrect:
		return "multi_correct"
	case TextAnswer:
		return "text"
	case SequenceAnswer:
		return "sequence"
	}
	return "unknown"
}

// swagger:model Question
type Question struct {
	BaseModel

	TestID          uint         `gorm:"index;not null" json:"testId"`
	ConceptID       *uint        `gorm:"index" json:"conceptId,omitempty"`
	Title           string       `gorm:"size:255" json:"title"`
	Description     string       `gorm:"type:text" json:"description"`
	QuestionType    QuestionType `gorm:"default:0" json:"questionType"`
	ComplexityLevel int          `gorm:"not null" json:"complexityLevel"`

	// Answers 按 ID 升序即为标准顺序（排序题的正确顺序）
	Answers []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	BaseModel

	QuestionID           uint   `gorm:"index;not null" json:"questionId"`
	Content              string `gorm:"type:text" json:"content"`
	CorrectnessIndicator int    `gorm:"default:0" json:"correctnessIndicator"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) IsCorrect() bool {
	return a.CorrectnessIndicator > 0
}
