package service

import (
	"context"
	"fmt"
	"sort"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
	"lmp_backend/pkg/logger"
	"lmp_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// chooseQuestions 选出本次尝试的题目顺序。
// forNN 测试取全部题目，按 (ConceptID, ID) 排序；其余随机抽取 min(count, total) 道。
func chooseQuestions(test *model.Test, pool []model.Question, shuffler Shuffler) []model.Question {
	chosen := make([]model.Question, len(pool))
	copy(chosen, pool)

	if test.ForNN {
		sort.SliceStable(chosen, func(i, j int) bool {
			ci, cj := chosen[i].ConceptID, chosen[j].ConceptID
			switch {
			case ci == nil && cj != nil:
				return true
			case ci != nil && cj == nil:
				return false
			case ci != nil && cj != nil && *ci != *cj:
				return *ci < *cj
			}
			return chosen[i].ID < chosen[j].ID
		})
		return chosen
	}

	shuffler.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })
	if test.CountOfQuestions > 0 && test.CountOfQuestions < len(chosen) {
		chosen = chosen[:test.CountOfQuestions]
	}
	return chosen
}

// selectSlot 在未作答的题目中选择目标：优先精确匹配 number，否则向后查找，越过末尾则回绕到最小编号
func selectSlot(slots []model.AnswerOnTestQuestion, number int) (*model.AnswerOnTestQuestion, bool) {
	var after, first *model.AnswerOnTestQuestion
	for i := range slots {
		s := &slots[i]
		if s.IsAnswered() {
			continue
		}
		if s.Number == number {
			return s, true
		}
		if s.Number > number && (after == nil || s.Number < after.Number) {
			after = s
		}
		if first == nil || s.Number < first.Number {
			first = s
		}
	}
	if after != nil {
		return after, true
	}
	return first, first != nil
}

func questionStatuses(slots []model.AnswerOnTestQuestion) map[int]model.QuestionStatus {
	statuses := make(map[int]model.QuestionStatus, len(slots))
	for i := range slots {
		statuses[slots[i].Number] = slots[i].Status()
	}
	return statuses
}

func hasUnanswered(slots []model.AnswerOnTestQuestion) bool {
	for i := range slots {
		if !slots[i].IsAnswered() {
			return true
		}
	}
	return false
}

// prepareQuestion 返回可交给客户端的题目副本。
// 排序题的 CorrectnessIndicator 被改写为标准顺序中的位置；文本题只保留第一个答案；最后打乱答案顺序。
func prepareQuestion(q *model.Question, shuffler Shuffler) *model.Question {
	prepared := *q

	switch q.QuestionType {
	case model.SequenceAnswer:
		prepared.Answers = canonicalOrder(q)
		for i := range prepared.Answers {
			prepared.Answers[i].CorrectnessIndicator = i
		}
	case model.TextAnswer:
		prepared.Answers = nil
		if len(q.Answers) > 0 {
			prepared.Answers = []model.Answer{q.Answers[0]}
		}
	default:
		prepared.Answers = make([]model.Answer, len(q.Answers))
		copy(prepared.Answers, q.Answers)
	}

	shuffler.Shuffle(len(prepared.Answers), func(i, j int) {
		prepared.Answers[i], prepared.Answers[j] = prepared.Answers[j], prepared.Answers[i]
	})
	return &prepared
}

// startAttempt 开始新的尝试：丢弃当前未结束的题目位置并重新生成 1..N。
// 调用方需持有会话锁并处于事务中。
func (s *TestPassingService) startAttempt(ctx context.Context, test *model.Test, userID uint) ([]model.AnswerOnTestQuestion, error) {
	pool, err := s.Catalog.GetQuestionsForTest(ctx, test.ID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: test %d has no questions", util.ErrQuestionNotFound, test.ID)
	}
	chosen := chooseQuestions(test, pool, s.Shuffler)

	res, err := s.Results.FindPassResult(ctx, test.ID, userID)
	if err != nil && !util.IsNotFound(err) {
		return nil, err
	}
	if res == nil {
		res = &model.TestPassResult{TestID: test.ID, StudentID: userID}
	}
	res.Attempt++
	res.StartTime = s.Now()
	res.LastTimedQuestionID = nil

	if err := s.Slots.DeleteActiveSlots(ctx, test.ID, userID); err != nil {
		return nil, err
	}

	slots := make([]model.AnswerOnTestQuestion, len(chosen))
	for i, q := range chosen {
		slots[i] = model.AnswerOnTestQuestion{
			TestID:     test.ID,
			UserID:     userID,
			Attempt:    res.Attempt,
			Number:     i + 1,
			QuestionID: q.ID,
		}
	}
	if err := s.Slots.CreateSlots(ctx, slots); err != nil {
		return nil, err
	}
	if err := s.Results.SavePassResult(ctx, res); err != nil {
		return nil, err
	}

	monitoring.TestAttemptsStarted.Inc()
	logger.Log.Info("Test attempt started",
		zap.Uint("testID", test.ID),
		zap.Uint("userID", userID),
		zap.Int("attempt", res.Attempt),
		zap.Int("questions", len(slots)))
	return slots, nil
}

// activeSlots 获取或创建当前尝试的题目位置
func (s *TestPassingService) activeSlots(ctx context.Context, test *model.Test, userID uint) ([]model.AnswerOnTestQuestion, error) {
	slots, err := s.Slots.ActiveSlots(ctx, test.ID, userID)
	if err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		return slots, nil
	}
	return s.startAttempt(ctx, test, userID)
}

// nextQuestion 根据当前题目位置组装下一题；全部作答后关闭会话并返回成绩
func (s *TestPassingService) nextQuestion(ctx context.Context, test *model.Test, userID uint, slots []model.AnswerOnTestQuestion, number int, reason string) (*model.NextQuestionResult, error) {
	result := &model.NextQuestionResult{
		QuestionsStatuses: questionStatuses(slots),
		SetTimeForAllTest: test.SetTimeForAllTest,
		ForSelfStudy:      test.ForSelfStudy,
	}

	target, ok := selectSlot(slots, number)
	if !ok {
		mark, percent, err := s.closeSession(ctx, test, userID, slots, reason)
		if err != nil {
			return nil, err
		}
		result.Mark = mark
		result.Percent = percent
		return result, nil
	}

	q, err := s.Catalog.GetQuestion(ctx, target.QuestionID)
	if err != nil {
		return nil, err
	}

	res, err := s.Results.FindPassResult(ctx, test.ID, userID)
	if err != nil {
		return nil, err
	}
	seconds, reset := remainingSeconds(test, res, q.ID, s.Now())
	if reset {
		if err := s.Results.SavePassResult(ctx, res); err != nil {
			return nil, err
		}
	}

	result.Question = prepareQuestion(q, s.Shuffler)
	result.Number = target.Number
	result.Seconds = seconds
	return result, nil
}
