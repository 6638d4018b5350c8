package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"

	"gorm.io/gorm"
)

type TestUnlockRepository struct {
	DB *gorm.DB
}

func NewTestUnlockRepository(db *gorm.DB) *TestUnlockRepository {
	return &TestUnlockRepository{DB: db}
}

// FindUnlock 未找到时返回 nil, nil
func (r *TestUnlockRepository) FindUnlock(ctx context.Context, testID, studentID uint) (*model.TestUnlock, error) {
	var u model.TestUnlock
	err := conn(ctx, r.DB).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *TestUnlockRepository) CreateUnlock(ctx context.Context, unlock *model.TestUnlock) error {
	return conn(ctx, r.DB).Create(unlock).Error
}

func (r *TestUnlockRepository) DeleteUnlock(ctx context.Context, unlock *model.TestUnlock) error {
	return conn(ctx, r.DB).Unscoped().Delete(unlock).Error
}

func (r *TestUnlockRepository) ListUnlocksForTests(ctx context.Context, testIDs []uint) ([]model.TestUnlock, error) {
	var unlocks []model.TestUnlock
	if len(testIDs) == 0 {
		return unlocks, nil
	}
	err := conn(ctx, r.DB).
		Preload("Test").
		Preload("Student").
		Where("test_id IN ?", testIDs).
		Order("test_id, student_id").
		Find(&unlocks).Error
	return unlocks, err
}
