package service

import (
	"fmt"
	"sort"
	"strings"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
)

// ScoreResult 单题评分结果，AnswerString 为提交内容的可读记录
type ScoreResult struct {
	Points       int
	AnswerString string
}

// ScoreAnswer 按题型评分。返回的错误均包装 util.ErrInvalidAnswer。
// answers 为 nil 的“跳过”情况由调用方处理，这里不会收到。
func ScoreAnswer(q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	switch q.QuestionType {
	case model.SingleCorrect:
		return scoreSingleCorrect(q, answers)
	case model.MultiCorrect:
		return scoreMultiCorrect(q, answers)
	case model.TextAnswer:
		return scoreText(q, answers)
	case model.SequenceAnswer:
		return scoreSequence(q, answers)
	}
	return ScoreResult{}, invalidAnswer("unsupported question type %d", q.QuestionType)
}

func scoreSingleCorrect(q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	selected := selectedAnswers(answers)
	if len(selected) != 1 {
		return ScoreResult{}, invalidAnswer("exactly one answer must be selected, got %d", len(selected))
	}

	chosen, ok := answerByID(q, selected[0].ID)
	if !ok {
		return ScoreResult{}, invalidAnswer("answer %d does not belong to question %d", selected[0].ID, q.ID)
	}

	res := ScoreResult{AnswerString: chosen.Content}
	if chosen.IsCorrect() {
		res.Points = q.ComplexityLevel
	}
	return res, nil
}

func scoreMultiCorrect(q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	selected := selectedAnswers(answers)
	if len(selected) == 0 {
		return ScoreResult{}, invalidAnswer("at least one answer must be selected")
	}

	chosen := make(map[uint]bool, len(selected))
	lines := make([]string, 0, len(selected))
	for _, s := range selected {
		a, ok := answerByID(q, s.ID)
		if !ok {
			return ScoreResult{}, invalidAnswer("answer %d does not belong to question %d", s.ID, q.ID)
		}
		chosen[a.ID] = true
		lines = append(lines, a.Content)
	}

	correct := correctAnswerIDs(q)
	isCorrect := len(selected) == len(correct)
	for _, id := range correct {
		isCorrect = isCorrect && chosen[id]
	}

	res := ScoreResult{AnswerString: strings.Join(lines, "\n")}
	if isCorrect {
		res.Points = q.ComplexityLevel
	}
	return res, nil
}

func scoreText(q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	if len(answers) != 1 {
		return ScoreResult{}, invalidAnswer("exactly one text answer expected, got %d", len(answers))
	}
	if answers[0].Content == nil {
		return ScoreResult{}, invalidAnswer("answer text is required")
	}

	text := *answers[0].Content
	res := ScoreResult{AnswerString: strings.ToLower(text)}
	for _, a := range q.Answers {
		if strings.EqualFold(a.Content, text) {
			res.Points = q.ComplexityLevel
			break
		}
	}
	return res, nil
}

func scoreSequence(q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	if len(answers) != len(q.Answers) {
		return ScoreResult{}, invalidAnswer("sequence length %d does not match %d answers", len(answers), len(q.Answers))
	}

	canonical := canonicalOrder(q)
	isCorrect := true
	lines := make([]string, 0, len(answers))
	for i, s := range answers {
		a, ok := answerByID(q, s.ID)
		if !ok {
			return ScoreResult{}, invalidAnswer("answer %d does not belong to question %d", s.ID, q.ID)
		}
		lines = append(lines, a.Content)
		isCorrect = isCorrect && canonical[i].ID == s.ID
	}

	res := ScoreResult{AnswerString: strings.Join(lines, "\n")}
	if isCorrect {
		res.Points = q.ComplexityLevel
	}
	return res, nil
}

func selectedAnswers(answers []model.SubmittedAnswer) []model.SubmittedAnswer {
	var selected []model.SubmittedAnswer
	for _, a := range answers {
		if a.Selected() {
			selected = append(selected, a)
		}
	}
	return selected
}

func answerByID(q *model.Question, id uint) (*model.Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].ID == id {
			return &q.Answers[i], true
		}
	}
	return nil, false
}

func correctAnswerIDs(q *model.Question) []uint {
	var ids []uint
	for _, a := range q.Answers {
		if a.IsCorrect() {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// canonicalOrder 排序题的正确顺序即答案 ID 升序
func canonicalOrder(q *model.Question) []model.Answer {
	ordered := make([]model.Answer, len(q.Answers))
	copy(ordered, q.Answers)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return ordered
}

func invalidAnswer(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", util.ErrInvalidAnswer, fmt.Sprintf(format, args...))
}
