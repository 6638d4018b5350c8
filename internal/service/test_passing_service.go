package service

import (
	"context"
	"fmt"
	"time"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"
	"lmp_backend/pkg/logger"
	"lmp_backend/pkg/monitoring"
	"lmp_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TestPassingService struct {
	Catalog    TestCatalog
	Principals PrincipalLookup
	Slots      SlotStore
	Results    PassResultStore
	Unlocks    UnlockStore
	Tx         Transactor
	Locker     SessionLocker
	Gate       *TestAccessGate
	Shuffler   Shuffler
	Now        func() time.Time
}

func NewTestPassingService(
	catalog TestCatalog,
	principals PrincipalLookup,
	slots SlotStore,
	results PassResultStore,
	unlocks UnlockStore,
	tx Transactor,
	locker SessionLocker,
) *TestPassingService {
	s := &TestPassingService{
		Catalog:    catalog,
		Principals: principals,
		Slots:      slots,
		Results:    results,
		Unlocks:    unlocks,
		Tx:         tx,
		Locker:     locker,
		Shuffler:   NewRandShuffler(time.Now().UnixNano()),
		Now:        time.Now,
	}
	s.Gate = NewTestAccessGate(principals, unlocks)
	s.Gate.Now = func() time.Time { return s.Now() }
	return s
}

func (s *TestPassingService) CanAccess(ctx context.Context, testID, userID uint) (bool, error) {
	test, err := s.Catalog.GetTest(ctx, testID)
	if err != nil {
		return false, err
	}
	return s.Gate.CanAccess(ctx, test, userID)
}

// GetActiveSlots 返回当前尝试的题目位置，不存在时创建新的尝试
func (s *TestPassingService) GetActiveSlots(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	var slots []model.AnswerOnTestQuestion
	err := s.withSession(ctx, "TestPassingService.GetActiveSlots", testID, userID, func(ctx context.Context, test *model.Test) error {
		var err error
		slots, err = s.activeSlots(ctx, test, userID)
		return err
	})
	return slots, err
}

func (s *TestPassingService) GetNextQuestion(ctx context.Context, testID, userID uint, number int) (*model.NextQuestionResult, error) {
	var result *model.NextQuestionResult
	err := s.withSession(ctx, "TestPassingService.GetNextQuestion", testID, userID, func(ctx context.Context, test *model.Test) error {
		slots, err := s.activeSlots(ctx, test, userID)
		if err != nil {
			return err
		}
		result, err = s.nextQuestion(ctx, test, userID, slots, number, closeReasonCompleted)
		return err
	})
	return result, err
}

// SubmitAnswer 为第 number 题评分并前进到下一道未作答的题目。
// answers 为 nil 表示跳过，记 0 分；整卷计时超时时未作答题目全部记 0 分并结束测试。
func (s *TestPassingService) SubmitAnswer(ctx context.Context, testID, userID uint, number int, answers []model.SubmittedAnswer) (*model.NextQuestionResult, error) {
	var result *model.NextQuestionResult
	err := s.withSession(ctx, "TestPassingService.SubmitAnswer", testID, userID, func(ctx context.Context, test *model.Test) error {
		slots, err := s.Slots.ActiveSlots(ctx, test.ID, userID)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			return fmt.Errorf("%w: no active attempt for test %d", util.ErrSlotNotFound, test.ID)
		}

		res, err := s.Results.FindPassResult(ctx, test.ID, userID)
		if err != nil {
			return err
		}

		now := s.Now()
		if testTimeExpired(test, res, now) {
			if err := s.expireSlots(ctx, slots, now); err != nil {
				return err
			}
			logger.Log.Info("Test time expired",
				zap.Uint("testID", test.ID),
				zap.Uint("userID", userID),
				zap.Int("attempt", res.Attempt))
			result, err = s.nextQuestion(ctx, test, userID, slots, number+1, closeReasonExpired)
			return err
		}

		slot := findSlot(slots, number)
		if slot == nil {
			return fmt.Errorf("%w: question number %d", util.ErrSlotNotFound, number)
		}
		if slot.IsAnswered() {
			return fmt.Errorf("%w: %w", util.ErrInvalidAnswer, util.ErrQuestionAlreadyAnswered)
		}

		q, err := s.Catalog.GetQuestion(ctx, slot.QuestionID)
		if err != nil {
			return err
		}
		score, err := s.score(ctx, q, answers)
		if err != nil {
			return err
		}

		slot.Points = &score.Points
		slot.Time = &now
		slot.AnswerString = score.AnswerString
		if err := s.Slots.SaveSlots(ctx, []model.AnswerOnTestQuestion{*slot}); err != nil {
			return err
		}

		result, err = s.nextQuestion(ctx, test, userID, slots, number+1, closeReasonCompleted)
		return err
	})
	return result, err
}

// RestartTest 放弃当前未完成的尝试并开始新的尝试
func (s *TestPassingService) RestartTest(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	var slots []model.AnswerOnTestQuestion
	err := s.withSession(ctx, "TestPassingService.RestartTest", testID, userID, func(ctx context.Context, test *model.Test) error {
		var err error
		slots, err = s.startAttempt(ctx, test, userID)
		return err
	})
	return slots, err
}

// withSession 检查访问权限后在会话锁和事务中执行 fn
func (s *TestPassingService) withSession(ctx context.Context, op string, testID, userID uint, fn func(ctx context.Context, test *model.Test) error) (err error) {
	ctx, span := tracing.Tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("test.id", int64(testID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	test, err := s.Catalog.GetTest(ctx, testID)
	if err != nil {
		return err
	}
	if err := s.Gate.Check(ctx, test, userID); err != nil {
		return err
	}

	unlock, err := s.Locker.Lock(ctx, testID, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.Tx.Transaction(ctx, func(ctx context.Context) error {
		return fn(ctx, test)
	})
}

func (s *TestPassingService) score(ctx context.Context, q *model.Question, answers []model.SubmittedAnswer) (ScoreResult, error) {
	if answers == nil {
		monitoring.TestAnswersScored.WithLabelValues(q.QuestionType.String(), "skipped").Inc()
		return ScoreResult{}, nil
	}

	if q.QuestionType != model.TextAnswer {
		if err := s.checkAnswersBelong(ctx, q, answers); err != nil {
			monitoring.TestAnswersScored.WithLabelValues(q.QuestionType.String(), "invalid").Inc()
			return ScoreResult{}, err
		}
	}

	score, err := ScoreAnswer(q, answers)
	outcome := "incorrect"
	switch {
	case err != nil:
		outcome = "invalid"
	case score.Points > 0:
		outcome = "correct"
	}
	monitoring.TestAnswersScored.WithLabelValues(q.QuestionType.String(), outcome).Inc()
	return score, err
}

// checkAnswersBelong 对不属于该题的答案 ID 给出更明确的错误
func (s *TestPassingService) checkAnswersBelong(ctx context.Context, q *model.Question, answers []model.SubmittedAnswer) error {
	for _, a := range answers {
		if _, ok := answerByID(q, a.ID); ok {
			continue
		}
		stored, err := s.Catalog.GetAnswer(ctx, a.ID)
		if util.IsNotFound(err) {
			return fmt.Errorf("%w: answer %d not found", util.ErrInvalidAnswer, a.ID)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: answer %d belongs to question %d", util.ErrInvalidAnswer, a.ID, stored.QuestionID)
	}
	return nil
}

func (s *TestPassingService) expireSlots(ctx context.Context, slots []model.AnswerOnTestQuestion, now time.Time) error {
	var expired []model.AnswerOnTestQuestion
	for i := range slots {
		if slots[i].IsAnswered() {
			continue
		}
		zero := 0
		slots[i].Points = &zero
		slots[i].Time = &now
		expired = append(expired, slots[i])
	}
	if len(expired) == 0 {
		return nil
	}
	return s.Slots.SaveSlots(ctx, expired)
}

func findSlot(slots []model.AnswerOnTestQuestion, number int) *model.AnswerOnTestQuestion {
	for i := range slots {
		if slots[i].Number == number {
			return &slots[i]
		}
	}
	return nil
}
