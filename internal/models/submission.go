package models

import "time"

// Submission lifecycle statuses. A submission is always in exactly one of
// these states; transitions happen only through the lifecycle service and
// the review orchestrator.
const (
	// SubmissionStatusDraft indicates the student is still editing.
	SubmissionStatusDraft = "DRAFT"
	// SubmissionStatusSubmitted indicates the student handed the document in.
	SubmissionStatusSubmitted = "SUBMITTED"
	// SubmissionStatusUnderReview indicates automated or admin review started.
	SubmissionStatusUnderReview = "UNDER_REVIEW"
	// SubmissionStatusNeedsFix indicates the student must correct and resubmit.
	SubmissionStatusNeedsFix = "NEEDS_FIX"
	// SubmissionStatusApproved is the terminal accepted state.
	SubmissionStatusApproved = "APPROVED"
	// SubmissionStatusRejected is the terminal declined state; the student
	// may still edit and resubmit, re-entering the pipeline.
	SubmissionStatusRejected = "REJECTED"
)

// History actions recorded in the append-only ledger.
const (
	HistoryActionCreate   = "CREATE"
	HistoryActionModified = "MODIFIED"
	HistoryActionApproved = "APPROVED"
	HistoryActionRejected = "REJECTED"
)

// KnownStatus reports whether value is one of the defined lifecycle states.
func KnownStatus(value string) bool {
	switch value {
	case SubmissionStatusDraft, SubmissionStatusSubmitted, SubmissionStatusUnderReview,
		SubmissionStatusNeedsFix, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// Submission represents a student's document handed in against a doc type.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	DocTypeID   uint       `gorm:"not null;index" json:"doc_type_id"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Student     Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	DocType     DocType    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"doc_type"`
}

// IsEditable reports whether a student may overwrite file and field values.
func (s Submission) IsEditable() bool {
	switch s.Status {
	case SubmissionStatusDraft, SubmissionStatusNeedsFix, SubmissionStatusRejected:
		return true
	}
	return false
}

// IsReviewable reports whether an administrator may approve or reject.
func (s Submission) IsReviewable() bool {
	return s.Status == SubmissionStatusSubmitted || s.Status == SubmissionStatusUnderReview
}

// SubmissionFile points at the single current stored file of a submission.
// A re-upload swaps the pointer on the existing row instead of inserting a
// second active row.
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex" json:"submission_id"`
	FileURL      string    `gorm:"size:512;not null" json:"file_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// SubmissionFieldValue holds one submitted form value. RequiredFieldID is
// nil when the submitted label does not match any defined field.
type SubmissionFieldValue struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	SubmissionID    uint   `gorm:"not null;index" json:"submission_id"`
	RequiredFieldID *uint  `json:"required_field_id"`
	FieldName       string `gorm:"size:255" json:"field_name"`
	FieldValue      string `gorm:"type:text" json:"field_value"`
}

// SubmissionHistory is an append-only audit row. AdminID is nil for student
// or system actors. Rows are never updated or deleted; insertion order is
// the canonical audit order.
type SubmissionHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	AdminID      *uint     `json:"admin_id"`
	Action       string    `gorm:"size:32;not null" json:"action"`
	Memo         string    `gorm:"type:text" json:"memo"`
	ChangedAt    time.Time `gorm:"autoCreateTime" json:"changed_at"`
	Admin        *Admin    `json:"admin,omitempty"`
}
