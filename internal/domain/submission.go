package domain

import (
	"time"
)

type Submission struct {
	ID           string           `json:"id"`
	AssignmentID string           `json:"assignmentId"`
	StudentID    string           `json:"studentId"`
	FileID       string           `json:"fileId"`
	Notes        *string          `json:"notes,omitempty"`
	SubmittedAt  time.Time        `json:"submittedAt"`
	Status       SubmissionStatus `json:"status"`
	Grade        *string          `json:"grade,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (s Submission) Identity() string {
	return s.ID
}

func (s Submission) Owner() string {
	return s.StudentID
}

// Label is the assignment identity: submissions carry no title of their own.
func (s Submission) Label() string {
	return s.AssignmentID
}

type NewSubmission struct {
	AssignmentID string  `json:"assignmentId" validate:"required"`
	StudentID    string  `json:"studentId" validate:"required"`
	FileID       string  `json:"fileId" validate:"required,notblank"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type SubmissionReview struct {
	Status SubmissionStatus `json:"status" validate:"required,submission_status"`
	Grade  *string          `json:"grade,omitempty" validate:"omitempty,max=64"`
}
