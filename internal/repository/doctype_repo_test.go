package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docserver-api/internal/models"
)

func TestDocTypeRepositoryReplaceFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocTypeRepository(db)
	_, docType := seedStudentAndDocType(t, db)

	require.NoError(t, repo.ReplaceFields(context.Background(), docType.ID, []models.RequiredField{
		{DocTypeID: docType.ID, FieldName: "name", ExampleValue: "Alice Kim"},
		{DocTypeID: docType.ID, FieldName: "student_no", ExampleValue: "20250001"},
	}))
	require.NoError(t, repo.ReplaceFields(context.Background(), docType.ID, []models.RequiredField{
		{DocTypeID: docType.ID, FieldName: "name"},
	}))

	fields, err := repo.ListFields(context.Background(), docType.ID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, "name", fields[0].FieldName)
}

func TestDocTypeRepositoryUpsertDeadlineKeepsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocTypeRepository(db)
	_, docType := seedStudentAndDocType(t, db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertDeadline(context.Background(), &models.Deadline{DocTypeID: docType.ID, Deadline: day}))

	moved := day.AddDate(0, 0, 7)
	require.NoError(t, repo.UpsertDeadline(context.Background(), &models.Deadline{DocTypeID: docType.ID, Deadline: moved}))

	var count int64
	require.NoError(t, db.Model(&models.Deadline{}).Where("doc_type_id = ?", docType.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetDeadline(context.Background(), docType.ID)
	require.NoError(t, err)
	require.Equal(t, moved.Format("2006-01-02"), stored.Deadline.UTC().Format("2006-01-02"))
}
