package service

import (
	"testing"
	"time"

	"lmp_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingSeconds_WholeTest(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	test := &model.Test{SetTimeForAllTest: true, TimeForCompleting: 10}
	res := &model.TestPassResult{StartTime: start}

	sec, reset := remainingSeconds(test, res, 1, start.Add(90*time.Second))
	assert.Equal(t, 510, sec)
	assert.False(t, reset)

	// 切换题目不会重置整卷计时
	sec, reset = remainingSeconds(test, res, 2, start.Add(100*time.Second))
	assert.Equal(t, 500, sec)
	assert.False(t, reset)
	assert.Equal(t, start, res.StartTime)

	sec, _ = remainingSeconds(test, res, 2, start.Add(601*time.Second))
	assert.Equal(t, 0, sec)
}

func TestRemainingSeconds_PerQuestion(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	test := &model.Test{TimeForCompleting: 30}
	res := &model.TestPassResult{StartTime: start}

	sec, reset := remainingSeconds(test, res, 7, start)
	assert.Equal(t, 30, sec)
	assert.True(t, reset)
	require.NotNil(t, res.LastTimedQuestionID)
	assert.Equal(t, uint(7), *res.LastTimedQuestionID)

	// 同一题目继续倒计时
	sec, reset = remainingSeconds(test, res, 7, start.Add(12*time.Second))
	assert.Equal(t, 18, sec)
	assert.False(t, reset)

	sec, reset = remainingSeconds(test, res, 7, start.Add(45*time.Second))
	assert.Equal(t, 0, sec)
	assert.False(t, reset)

	// 换题后重置
	later := start.Add(50 * time.Second)
	sec, reset = remainingSeconds(test, res, 8, later)
	assert.Equal(t, 30, sec)
	assert.True(t, reset)
	assert.Equal(t, later, res.StartTime)
	assert.Equal(t, uint(8), *res.LastTimedQuestionID)
}

func TestTestTimeExpired(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res := &model.TestPassResult{StartTime: start}

	whole := &model.Test{SetTimeForAllTest: true, TimeForCompleting: 10}
	assert.False(t, testTimeExpired(whole, res, start.Add(600*time.Second)))
	assert.True(t, testTimeExpired(whole, res, start.Add(601*time.Second)))

	perQuestion := &model.Test{TimeForCompleting: 10}
	assert.False(t, testTimeExpired(perQuestion, res, start.Add(time.Hour)))
}
