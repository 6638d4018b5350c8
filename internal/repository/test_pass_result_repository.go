package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"

	"gorm.io/gorm"
)

type TestPassResultRepository struct {
	DB *gorm.DB
}

func NewTestPassResultRepository(db *gorm.DB) *TestPassResultRepository {
	return &TestPassResultRepository{DB: db}
}

func (r *TestPassResultRepository) FindPassResult(ctx context.Context, testID, studentID uint) (*model.TestPassResult, error) {
	var res model.TestPassResult
	err := conn(ctx, r.DB).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPassResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *TestPassResultRepository) SavePassResult(ctx context.Context, res *model.TestPassResult) error {
	return conn(ctx, r.DB).Save(res).Error
}

func (r *TestPassResultRepository) ListPassResults(ctx context.Context, studentIDs, testIDs []uint) ([]model.TestPassResult, error) {
	var results []model.TestPassResult
	if len(studentIDs) == 0 || len(testIDs) == 0 {
		return results, nil
	}
	err := conn(ctx, r.DB).
		Where("student_id IN ? AND test_id IN ?", studentIDs, testIDs).
		Order("student_id, test_id").
		Find(&results).Error
	return results, err
}
