package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// ReviewResultRepository persists one row per automated-review attempt.
type ReviewResultRepository interface {
	WithTx(tx *gorm.DB) ReviewResultRepository
	Create(ctx context.Context, result *models.ReviewResult) error
	LatestBySubmission(ctx context.Context, submissionID uint) (models.ReviewResult, error)
}

type reviewResultRepository struct {
	db *gorm.DB
}

// NewReviewResultRepository instantiates the repository.
func NewReviewResultRepository(db *gorm.DB) ReviewResultRepository {
	return &reviewResultRepository{db: db}
}

func (r *reviewResultRepository) WithTx(tx *gorm.DB) ReviewResultRepository {
	return &reviewResultRepository{db: tx}
}

func (r *reviewResultRepository) Create(ctx context.Context, result *models.ReviewResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *reviewResultRepository) LatestBySubmission(ctx context.Context, submissionID uint) (models.ReviewResult, error) {
	var result models.ReviewResult
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id DESC").
		First(&result).Error; err != nil {
		return models.ReviewResult{}, err
	}

	return result, nil
}
