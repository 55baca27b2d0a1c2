package dto

import (
	"time"

	"github.com/noah-isme/docserver-api/internal/models"
)

// Submission modes accepted by the submit operation.
const (
	// SubmitModeFinal runs the full pipeline including automated verification.
	SubmitModeFinal = "FINAL"
	// SubmitModeDirect is documented as skipping automated verification and
	// going straight to admin review.
	SubmitModeDirect = "DIRECT"
)

// FieldValueInput is one element of the fieldsJson payload.
type FieldValueInput struct {
	RequiredFieldID *uint  `json:"required_field_id"`
	Label           string `json:"label"`
	Value           string `json:"value"`
}

// SubmitRequest selects the submission mode for the submit operation.
type SubmitRequest struct {
	Mode *string `json:"mode" validate:"omitempty,oneof=FINAL DIRECT"`
}

// AdminDecisionRequest carries the optional memo of an approve/reject call.
type AdminDecisionRequest struct {
	Memo *string `json:"memo"`
}

// SubmissionSummary is the compact view returned by every mutating
// lifecycle operation.
type SubmissionSummary struct {
	SubmissionID uint    `json:"submission_id"`
	Status       string  `json:"status"`
	FileURL      string  `json:"file_url,omitempty"`
	SubmittedAt  *string `json:"submitted_at"`
}

// NewSubmissionSummary maps a submission plus its current file URL.
func NewSubmissionSummary(s models.Submission, fileURL string) SubmissionSummary {
	return SubmissionSummary{
		SubmissionID: s.ID,
		Status:       s.Status,
		FileURL:      fileURL,
		SubmittedAt:  formatTimePtr(s.SubmittedAt),
	}
}

// HistoryEntry is one audit row of the submission ledger.
type HistoryEntry struct {
	ID        uint   `json:"id"`
	Action    string `json:"action"`
	Memo      string `json:"memo"`
	ActorName string `json:"actor_name"`
	ChangedAt string `json:"changed_at"`
}

// NewHistoryEntry maps a ledger row, attributing system/student actors when
// no admin is attached.
func NewHistoryEntry(h models.SubmissionHistory) HistoryEntry {
	actor := "student/system"
	if h.Admin != nil && h.Admin.Name != "" {
		actor = h.Admin.Name
	}
	return HistoryEntry{
		ID:        h.ID,
		Action:    h.Action,
		Memo:      h.Memo,
		ActorName: actor,
		ChangedAt: h.ChangedAt.Format(time.RFC3339),
	}
}

// SubmissionDetail is the admin view of one submission.
type SubmissionDetail struct {
	SubmissionID uint           `json:"submission_id"`
	Status       string         `json:"status"`
	SubmittedAt  *string        `json:"submitted_at"`
	StudentNo    string         `json:"student_no"`
	StudentName  string         `json:"student_name"`
	DocTypeTitle string         `json:"doc_type_title"`
	FileURL      string         `json:"file_url,omitempty"`
	FileName     string         `json:"file_name,omitempty"`
	History      []HistoryEntry `json:"history"`
}

// MySubmissionRow is one row of the student's own listing.
type MySubmissionRow struct {
	SubmissionID uint    `json:"submission_id"`
	Status       string  `json:"status"`
	SubmittedAt  *string `json:"submitted_at"`
	FileName     string  `json:"file_name"`
}

// Finding is one automated-review finding surfaced to the student.
type Finding struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ReviewResultResponse is the student-facing review log: the ordered memo
// timeline plus the latest automated verdict's findings and reason.
type ReviewResultResponse struct {
	SubmissionID uint      `json:"submission_id"`
	Status       string    `json:"status"`
	SubmittedAt  *string   `json:"submitted_at"`
	DebugTexts   []string  `json:"debug_texts"`
	Findings     []Finding `json:"findings"`
	Reason       string    `json:"reason,omitempty"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
