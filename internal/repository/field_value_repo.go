package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// FieldValueRepository replaces the field-value set of a submission
// atomically: old rows are deleted and new rows inserted, never merged.
type FieldValueRepository interface {
	WithTx(tx *gorm.DB) FieldValueRepository
	ReplaceForSubmission(ctx context.Context, submissionID uint, values []models.SubmissionFieldValue) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionFieldValue, error)
}

type fieldValueRepository struct {
	db *gorm.DB
}

// NewFieldValueRepository instantiates the repository.
func NewFieldValueRepository(db *gorm.DB) FieldValueRepository {
	return &fieldValueRepository{db: db}
}

func (r *fieldValueRepository) WithTx(tx *gorm.DB) FieldValueRepository {
	return &fieldValueRepository{db: tx}
}

func (r *fieldValueRepository) ReplaceForSubmission(ctx context.Context, submissionID uint, values []models.SubmissionFieldValue) error {
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.SubmissionFieldValue{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&values).Error
}

func (r *fieldValueRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionFieldValue, error) {
	var values []models.SubmissionFieldValue
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&values).Error; err != nil {
		return nil, err
	}

	return values, nil
}
