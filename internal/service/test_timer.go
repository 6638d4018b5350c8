package service

import (
	"time"

	"lmp_backend/internal/model"
)

// remainingSeconds 计算剩余时间（秒），不小于 0。
// 单题计时模式下，当前计时的题目发生变化时重置 StartTime 与 LastTimedQuestionID，
// 返回 reset=true，调用方需持久化 res。
func remainingSeconds(test *model.Test, res *model.TestPassResult, questionID uint, now time.Time) (seconds int, reset bool) {
	if test.SetTimeForAllTest {
		return floorSeconds(float64(test.TimeForCompleting*60) - now.Sub(res.StartTime).Seconds()), false
	}

	if res.LastTimedQuestionID != nil && *res.LastTimedQuestionID == questionID {
		return floorSeconds(float64(test.TimeForCompleting) - now.Sub(res.StartTime).Seconds()), false
	}

	qid := questionID
	res.StartTime = now
	res.LastTimedQuestionID = &qid
	return floorSeconds(float64(test.TimeForCompleting)), true
}

// testTimeExpired 仅整卷计时模式会过期
func testTimeExpired(test *model.Test, res *model.TestPassResult, now time.Time) bool {
	if !test.SetTimeForAllTest {
		return false
	}
	limit := time.Duration(test.TimeForCompleting) * time.Minute
	return now.Sub(res.StartTime) > limit
}

func floorSeconds(s float64) int {
	if s <= 0 {
		return 0
	}
	return int(s)
}
