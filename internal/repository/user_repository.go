package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := conn(ctx, r.DB).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) IsLecturer(ctx context.Context, userID uint) (bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsLecturer(), nil
}

func (r *UserRepository) ListStudentsByGroup(ctx context.Context, groupID uint) ([]model.User, error) {
	var users []model.User
	err := conn(ctx, r.DB).
		Where("group_id = ? AND role = ?", groupID, model.Student).
		Order("name, id").
		Find(&users).Error
	return users, err
}
