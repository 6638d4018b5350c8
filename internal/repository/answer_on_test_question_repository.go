package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerOnTestQuestionRepository struct {
	DB *gorm.DB
}

func NewAnswerOnTestQuestionRepository(db *gorm.DB) *AnswerOnTestQuestionRepository {
	return &AnswerOnTestQuestionRepository{DB: db}
}

// ActiveSlots 返回当前未结束尝试的全部题目位置，按序号排列
func (r *AnswerOnTestQuestionRepository) ActiveSlots(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	var slots []model.AnswerOnTestQuestion
	err := conn(ctx, r.DB).
		Where("test_id = ? AND user_id = ? AND test_ended = ?", testID, userID, false).
		Order("number").
		Find(&slots).Error
	return slots, err
}

// EndedSlots 返回最近一次已结束尝试的题目位置
func (r *AnswerOnTestQuestionRepository) EndedSlots(ctx context.Context, testID, userID uint) ([]model.AnswerOnTestQuestion, error) {
	var slots []model.AnswerOnTestQuestion
	var lastAttempt int
	err := conn(ctx, r.DB).Model(&model.AnswerOnTestQuestion{}).
		Where("test_id = ? AND user_id = ? AND test_ended = ?", testID, userID, true).
		Select("COALESCE(MAX(attempt), 0)").
		Scan(&lastAttempt).Error
	if err != nil {
		return nil, err
	}
	if lastAttempt == 0 {
		return slots, nil
	}
	err = conn(ctx, r.DB).
		Where("test_id = ? AND user_id = ? AND test_ended = ? AND attempt = ?", testID, userID, true, lastAttempt).
		Order("number").
		Find(&slots).Error
	return slots, err
}

// ActiveSlotsForTests 供实时看板使用，按 (test,user) 分组由调用方处理
func (r *AnswerOnTestQuestionRepository) ActiveSlotsForTests(ctx context.Context, testIDs []uint) ([]model.AnswerOnTestQuestion, error) {
	var slots []model.AnswerOnTestQuestion
	if len(testIDs) == 0 {
		return slots, nil
	}
	err := conn(ctx, r.DB).
		Where("test_id IN ? AND test_ended = ?", testIDs, false).
		Order("test_id, user_id, number").
		Find(&slots).Error
	return slots, err
}

// LatestActiveSlotForQuestion 用户在未结束尝试中最近一次遇到该题的位置，没有时返回 nil, nil
func (r *AnswerOnTestQuestionRepository) LatestActiveSlotForQuestion(ctx context.Context, userID, questionID uint) (*model.AnswerOnTestQuestion, error) {
	var slot model.AnswerOnTestQuestion
	err := conn(ctx, r.DB).
		Where("user_id = ? AND question_id = ? AND test_ended = ?", userID, questionID, false).
		Order("id DESC").
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AnswerOnTestQuestionRepository) CreateSlots(ctx context.Context, slots []model.AnswerOnTestQuestion) error {
	if len(slots) == 0 {
		return nil
	}
	return conn(ctx, r.DB).Create(&slots).Error
}

func (r *AnswerOnTestQuestionRepository) SaveSlots(ctx context.Context, slots []model.AnswerOnTestQuestion) error {
	for i := range slots {
		if err := conn(ctx, r.DB).Save(&slots[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteActiveSlots 物理删除未结束的题目位置，已归档的尝试保留
func (r *AnswerOnTestQuestionRepository) DeleteActiveSlots(ctx context.Context, testID, userID uint) error {
	return conn(ctx, r.DB).Unscoped().
		Where("test_id = ? AND user_id = ? AND test_ended = ?", testID, userID, false).
		Delete(&model.AnswerOnTestQuestion{}).Error
}
