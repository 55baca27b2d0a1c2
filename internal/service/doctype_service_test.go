package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/models"
)

func TestDocTypeServiceRegisterAndEditView(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	department := models.Department{Name: "Computer Science " + t.Name()}
	require.NoError(t, db.Create(&department).Error)

	svc := NewDocTypeService(db, repos, newFakeStore(), newTestValidator(), zerolog.Nop(), time.UTC)

	view, err := svc.Register(context.Background(), dto.DocTypeCreateRequest{
		DepartmentID:   department.ID,
		Title:          "Leave of Absence",
		RequiredFields: []string{"name", "semester"},
		ExampleValues:  []string{"Alice Kim"},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "Leave of Absence", view.Title)
	require.Len(t, view.RequiredFields, 2)
	require.Equal(t, "Alice Kim", view.RequiredFields[0].ExampleValue)
	require.Empty(t, view.RequiredFields[1].ExampleValue)
}

func TestDocTypeServiceRegisterRequiresDepartment(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)

	svc := NewDocTypeService(db, repos, newFakeStore(), newTestValidator(), zerolog.Nop(), time.UTC)

	_, err := svc.Register(context.Background(), dto.DocTypeCreateRequest{
		DepartmentID: 999,
		Title:        "Orphan",
	}, nil)
	require.ErrorIs(t, err, ErrDepartmentNotFound)
}

func TestDocTypeServiceUpdateReplacesFieldDefinitions(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	department := models.Department{Name: "Computer Science " + t.Name()}
	require.NoError(t, db.Create(&department).Error)

	svc := NewDocTypeService(db, repos, newFakeStore(), newTestValidator(), zerolog.Nop(), time.UTC)

	created, err := svc.Register(context.Background(), dto.DocTypeCreateRequest{
		DepartmentID:   department.ID,
		Title:          "Transcript",
		RequiredFields: []string{"name", "semester", "gpa"},
	}, nil)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.DocTypeID, dto.DocTypeUpdateRequest{
		Title:          "Official Transcript",
		RequiredFields: []string{"name"},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "Official Transcript", updated.Title)
	require.Len(t, updated.RequiredFields, 1)
}

func TestDocTypeServiceDeadlineLifecycle(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	department := models.Department{Name: "Computer Science " + t.Name()}
	require.NoError(t, db.Create(&department).Error)

	svc := NewDocTypeService(db, repos, newFakeStore(), newTestValidator(), zerolog.Nop(), time.UTC)

	created, err := svc.Register(context.Background(), dto.DocTypeCreateRequest{
		DepartmentID: department.ID,
		Title:        "Scholarship Application",
	}, nil)
	require.NoError(t, err)

	past := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	row, err := svc.SetDeadline(context.Background(), dto.DeadlineRequest{DocTypeID: created.DocTypeID, Deadline: past})
	require.NoError(t, err)
	require.True(t, row.Closed)

	future := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	row, err = svc.SetDeadline(context.Background(), dto.DeadlineRequest{DocTypeID: created.DocTypeID, Deadline: future})
	require.NoError(t, err)
	require.False(t, row.Closed)

	statuses, err := svc.DeadlineStatus(context.Background(), department.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Closed)
	require.NotNil(t, statuses[0].Deadline)
	require.Equal(t, future, *statuses[0].Deadline)
}

func TestDocTypeServiceSetDeadlineValidatesFormat(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)

	svc := NewDocTypeService(db, repos, newFakeStore(), newTestValidator(), zerolog.Nop(), time.UTC)

	_, err := svc.SetDeadline(context.Background(), dto.DeadlineRequest{DocTypeID: 1, Deadline: "next tuesday"})
	require.Error(t, err)
}
