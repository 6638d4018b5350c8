package repository

import (
	"context"
	"errors"

	"lmp_backend/internal/model"
	"lmp_backend/internal/util"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) GetSubject(ctx context.Context, id uint) (*model.Subject, error) {
	var s model.Subject
	err := conn(ctx, r.DB).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// IsSubjectOpenToGroup 学科是否向该小组开放
func (r *SubjectRepository) IsSubjectOpenToGroup(ctx context.Context, subjectID, groupID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.SubjectGroup{}).
		Where("subject_id = ? AND group_id = ?", subjectID, groupID).
		Count(&count).Error
	return count > 0, err
}
