package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// StudentRepository resolves student identities.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
}

// AdminRepository resolves administrator identities.
type AdminRepository interface {
	GetByID(ctx context.Context, id uint) (models.Admin, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetByID(ctx context.Context, id uint) (models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return models.Admin{}, err
	}

	return admin, nil
}
