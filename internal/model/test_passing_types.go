package model

type QuestionStatus int

const (
	NotPassed QuestionStatus = iota
	Success
	Failed
)

func (s QuestionStatus) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "error"
	}
	return "not_passed"
}

// SubmittedAnswer 学生提交的单个答案项。
// 选择题中 CorrectnessIndicator > 0 表示被选中；文本题使用 Content；排序题按提交顺序排列。
type SubmittedAnswer struct {
	ID                   uint    `json:"id"`
	Content              *string `json:"content,omitempty"`
	CorrectnessIndicator int     `json:"correctnessIndicator"`
}

func (a SubmittedAnswer) Selected() bool {
	return a.CorrectnessIndicator > 0
}

// NextQuestionResult 获取下一题的结果；测试结束时 Question 为空，Mark/Percent 有值
type NextQuestionResult struct {
	Question          *Question              `json:"question,omitempty"`
	Number            int                    `json:"number"`
	Seconds           int                    `json:"seconds"`
	QuestionsStatuses map[int]QuestionStatus `json:"questionsStatuses"`
	Mark              *int                   `json:"mark,omitempty"`
	Percent           *int                   `json:"percent,omitempty"`
	SetTimeForAllTest bool                   `json:"setTimeForAllTest"`
	ForSelfStudy      bool                   `json:"forSelfStudy"`
}

func (r *NextQuestionResult) Completed() bool {
	return r.Question == nil
}

// swagger:model RealTimePassingResult
type RealTimePassingResult struct {
	StudentID   uint             `json:"studentId"`
	StudentName string           `json:"studentName"`
	TestID      uint             `json:"testId"`
	TestName    string           `json:"testName"`
	PassResults []QuestionStatus `json:"passResults"`
	TimeExpired bool             `json:"timeExpired"` // 整卷计时已超时但会话尚未关闭
}

// swagger:model StudentPassResults
type StudentPassResults struct {
	StudentID   uint             `json:"studentId"`
	StudentName string           `json:"studentName"`
	Results     []TestPassResult `json:"results"`
}
