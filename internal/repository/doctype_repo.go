package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/docserver-api/internal/models"
)

// DocTypeRepository manages document-type definitions, their required
// fields and their deadlines.
type DocTypeRepository interface {
	WithTx(tx *gorm.DB) DocTypeRepository
	GetByID(ctx context.Context, id uint) (models.DocType, error)
	Create(ctx context.Context, docType *models.DocType) error
	Update(ctx context.Context, docType *models.DocType) error
	ListByDepartment(ctx context.Context, departmentID uint) ([]models.DocType, error)

	ListFields(ctx context.Context, docTypeID uint) ([]models.RequiredField, error)
	ReplaceFields(ctx context.Context, docTypeID uint, fields []models.RequiredField) error

	GetDeadline(ctx context.Context, docTypeID uint) (models.Deadline, error)
	UpsertDeadline(ctx context.Context, deadline *models.Deadline) error

	GetDepartment(ctx context.Context, id uint) (models.Department, error)
}

type docTypeRepository struct {
	db *gorm.DB
}

// NewDocTypeRepository instantiates the repository.
func NewDocTypeRepository(db *gorm.DB) DocTypeRepository {
	return &docTypeRepository{db: db}
}

func (r *docTypeRepository) WithTx(tx *gorm.DB) DocTypeRepository {
	return &docTypeRepository{db: tx}
}

func (r *docTypeRepository) GetByID(ctx context.Context, id uint) (models.DocType, error) {
	var docType models.DocType
	if err := r.db.WithContext(ctx).Preload("Department").First(&docType, id).Error; err != nil {
		return models.DocType{}, err
	}

	return docType, nil
}

func (r *docTypeRepository) Create(ctx context.Context, docType *models.DocType) error {
	return r.db.WithContext(ctx).Create(docType).Error
}

func (r *docTypeRepository) Update(ctx context.Context, docType *models.DocType) error {
	return r.db.WithContext(ctx).Save(docType).Error
}

func (r *docTypeRepository) ListByDepartment(ctx context.Context, departmentID uint) ([]models.DocType, error) {
	var docTypes []models.DocType
	if err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("id ASC").
		Find(&docTypes).Error; err != nil {
		return nil, err
	}

	return docTypes, nil
}

func (r *docTypeRepository) ListFields(ctx context.Context, docTypeID uint) ([]models.RequiredField, error) {
	var fields []models.RequiredField
	if err := r.db.WithContext(ctx).
		Where("doc_type_id = ?", docTypeID).
		Order("id ASC").
		Find(&fields).Error; err != nil {
		return nil, err
	}

	return fields, nil
}

func (r *docTypeRepository) ReplaceFields(ctx context.Context, docTypeID uint, fields []models.RequiredField) error {
	if err := r.db.WithContext(ctx).
		Where("doc_type_id = ?", docTypeID).
		Delete(&models.RequiredField{}).Error; err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&fields).Error
}

func (r *docTypeRepository) GetDeadline(ctx context.Context, docTypeID uint) (models.Deadline, error) {
	var deadline models.Deadline
	if err := r.db.WithContext(ctx).
		Where("doc_type_id = ?", docTypeID).
		First(&deadline).Error; err != nil {
		return models.Deadline{}, err
	}

	return deadline, nil
}

func (r *docTypeRepository) UpsertDeadline(ctx context.Context, deadline *models.Deadline) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"deadline", "updated_at"}),
		}).
		Create(deadline).Error
}

func (r *docTypeRepository) GetDepartment(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}

	return department, nil
}
