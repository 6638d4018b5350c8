package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"

	"gorm.io/gorm"
)

// TestRepository 测试、题目与答案的只读目录
type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) GetTest(ctx context.Context, id uint) (*model.Test, error) {
	var t model.Test
	err := conn(ctx, r.DB).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestRepository) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := conn(ctx, r.DB).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *TestRepository) GetQuestionsForTest(ctx context.Context, testID uint) ([]model.Question, error) {
	var questions []model.Question
	err := conn(ctx, r.DB).
		Where("test_id = ?", testID).
		Order("id").
		Find(&questions).Error
	return questions, err
}

func (r *TestRepository) GetAnswer(ctx context.Context, id uint) (*model.Answer, error) {
	var a model.Answer
	err := conn(ctx, r.DB).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *TestRepository) GetTestsForSubject(ctx context.Context, subjectID uint) ([]model.Test, error) {
	var tests []model.Test
	err := conn(ctx, r.DB).Where("subject_id = ?", subjectID).Order("id").Find(&tests).Error
	return tests, err
}
