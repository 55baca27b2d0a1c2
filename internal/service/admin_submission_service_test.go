package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

func seedQueueSubmission(t *testing.T, db *gorm.DB, status string) (models.Submission, models.Admin) {
	t.Helper()
	student, admin, docType := seedMembers(t, db)

	submittedAt := time.Now().UTC()
	submission := models.Submission{
		StudentID:   student.ID,
		DocTypeID:   docType.ID,
		Status:      status,
		SubmittedAt: &submittedAt,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission, admin
}

func TestAdminSubmissionServiceApprove(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusUnderReview)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	summary, err := svc.Approve(context.Background(), Actor{ID: admin.ID, Role: RoleAdmin}, submission.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, summary.Status)

	entries, err := repos.History.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.HistoryActionApproved, entries[0].Action)
	require.Equal(t, "approved by administrator", entries[0].Memo)
	require.NotNil(t, entries[0].AdminID)
	require.Equal(t, admin.ID, *entries[0].AdminID)
}

func TestAdminSubmissionServiceRejectRecordsReason(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusSubmitted)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	reason := "signature page missing"
	summary, err := svc.Reject(context.Background(), Actor{ID: admin.ID, Role: RoleAdmin}, submission.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusRejected, summary.Status)

	entries, err := repos.History.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, "rejection reason: signature page missing", entries[0].Memo)
}

func TestAdminSubmissionServiceRejectWithoutReasonUsesPlaceholder(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusUnderReview)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	_, err := svc.Reject(context.Background(), Actor{ID: admin.ID, Role: RoleAdmin}, submission.ID, nil)
	require.NoError(t, err)

	entries, err := repos.History.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, "rejection reason: no reason given", entries[0].Memo)
}

func TestAdminSubmissionServiceSecondDecisionConflicts(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusUnderReview)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())
	actor := Actor{ID: admin.ID, Role: RoleAdmin}

	_, err := svc.Approve(context.Background(), actor, submission.ID, nil)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), actor, submission.ID, nil)
	require.ErrorIs(t, err, ErrNotReviewable)

	// The ledger holds exactly one decision.
	entries, err := repos.History.ListBySubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAdminSubmissionServiceRejectsUnknownAdmin(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, _ := seedQueueSubmission(t, db, models.SubmissionStatusUnderReview)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	_, err := svc.Approve(context.Background(), Actor{ID: 999, Role: RoleAdmin}, submission.ID, nil)
	require.ErrorIs(t, err, ErrNotAdmin)
}

func TestAdminSubmissionServiceDetailIncludesHistory(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusUnderReview)

	require.NoError(t, repos.History.Append(context.Background(), &models.SubmissionHistory{
		SubmissionID: submission.ID,
		Action:       models.HistoryActionCreate,
		Memo:         "student submission",
	}))

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	_, err := svc.Approve(context.Background(), Actor{ID: admin.ID, Role: RoleAdmin}, submission.ID, nil)
	require.NoError(t, err)

	detail, err := svc.Detail(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, detail.Status)
	require.Equal(t, "Alice Kim", detail.StudentName)
	require.Equal(t, "Enrollment Certificate", detail.DocTypeTitle)
	require.Len(t, detail.History, 2)
	require.Equal(t, "student/system", detail.History[0].ActorName)
	require.Equal(t, "Prof. Park", detail.History[1].ActorName)
}

func TestAdminSubmissionServiceQueueScopedToDepartment(t *testing.T) {
	db := newTestDB(t)
	repos := BuildRepositories(db)
	submission, admin := seedQueueSubmission(t, db, models.SubmissionStatusSubmitted)

	svc := NewAdminSubmissionService(db, repos, nopEvents(), zerolog.Nop())

	queue, err := svc.Queue(context.Background(), admin.DepartmentID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, submission.ID, queue[0].SubmissionID)

	empty, err := svc.Queue(context.Background(), admin.DepartmentID+100)
	require.NoError(t, err)
	require.Empty(t, empty)
}
