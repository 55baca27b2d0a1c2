package service

import (
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/repository"
)

// Repositories bundles the storage interfaces the lifecycle services share.
type Repositories struct {
	Submissions repository.SubmissionRepository
	Files       repository.SubmissionFileRepository
	FieldValues repository.FieldValueRepository
	History     repository.HistoryRepository
	Results     repository.ReviewResultRepository
	DocTypes    repository.DocTypeRepository
	Students    repository.StudentRepository
	Admins      repository.AdminRepository
}

// BuildRepositories wires the gorm-backed repositories over one database
// handle.
func BuildRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Submissions: repository.NewSubmissionRepository(db),
		Files:       repository.NewSubmissionFileRepository(db),
		FieldValues: repository.NewFieldValueRepository(db),
		History:     repository.NewHistoryRepository(db),
		Results:     repository.NewReviewResultRepository(db),
		DocTypes:    repository.NewDocTypeRepository(db),
		Students:    repository.NewStudentRepository(db),
		Admins:      repository.NewAdminRepository(db),
	}
}
