package service

import (
	"context"
	"math"

	"lmp_backend/internal/model"
	"lmp_backend/pkg/logger"
	"lmp_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	closeReasonCompleted = "completed"
	closeReasonExpired   = "expired"
)

// computeMark 计算 0-10 分制成绩（银行家舍入，.5 取偶）与百分比（截断）。
// 分母为本次尝试中题目的难度之和，为 0 时 ok=false。
func computeMark(questions []model.Question, slots []model.AnswerOnTestQuestion) (mark, percent int, ok bool) {
	complexity := make(map[uint]int, len(questions))
	for _, q := range questions {
		complexity[q.ID] = q.ComplexityLevel
	}

	var num, den int
	for _, s := range slots {
		c, found := complexity[s.QuestionID]
		if !found {
			continue
		}
		den += c
		if s.Points != nil {
			num += *s.Points
		}
	}
	if den == 0 {
		return 0, 0, false
	}

	ratio := float64(num) / float64(den)
	return int(math.RoundToEven(10 * ratio)), 100 * num / den, true
}

// closeSession 结束当前尝试：写入成绩，归档题目位置，非自学测试删除解锁记录
func (s *TestPassingService) closeSession(ctx context.Context, test *model.Test, userID uint, slots []model.AnswerOnTestQuestion, reason string) (mark, percent *int, err error) {
	questions, err := s.Catalog.GetQuestionsForTest(ctx, test.ID)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Results.FindPassResult(ctx, test.ID, userID)
	if err != nil {
		return nil, nil, err
	}

	if m, p, ok := computeMark(questions, slots); ok {
		mark, percent = &m, &p
		res.Points = mark
		res.Percent = percent
	}

	for i := range slots {
		slots[i].TestEnded = true
	}
	if err := s.Slots.SaveSlots(ctx, slots); err != nil {
		return nil, nil, err
	}
	if err := s.Results.SavePassResult(ctx, res); err != nil {
		return nil, nil, err
	}

	if !test.ForSelfStudy {
		unlock, err := s.Unlocks.FindUnlock(ctx, test.ID, userID)
		if err != nil {
			return nil, nil, err
		}
		if unlock != nil {
			if err := s.Unlocks.DeleteUnlock(ctx, unlock); err != nil {
				return nil, nil, err
			}
		}
	}

	monitoring.TestSessionsClosed.WithLabelValues(reason).Inc()
	logger.Log.Info("Test session closed",
		zap.Uint("testID", test.ID),
		zap.Uint("userID", userID),
		zap.Int("attempt", res.Attempt),
		zap.String("reason", reason),
		zap.Intp("mark", mark),
		zap.Intp("percent", percent))
	return mark, percent, nil
}
