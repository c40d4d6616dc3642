package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
)

type assignmentAttrs struct {
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline"`
	FileID      *string `json:"fileId"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
}

type submissionAttrs struct {
	AssignmentID string  `json:"assignmentId"`
	StudentID    string  `json:"studentId"`
	FileID       string  `json:"fileId"`
	Notes        *string `json:"notes"`
	SubmittedAt  string  `json:"submittedAt"`
	Status       string  `json:"status"`
	Grade        *string `json:"grade"`
}

type userAttrs struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type messageAttrs struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	SentAt     string `json:"sentAt"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseTime accepts the ISO timestamps written by clients and the bare
// dates produced by date pickers. Unparseable values yield the zero time.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func orFallback(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// DecodeAssignment normalizes a stored assignment document.
func DecodeAssignment(doc appwrite.Document) (domain.Assignment, error) {
	var attrs assignmentAttrs
	if err := doc.Decode(&attrs); err != nil {
		return domain.Assignment{}, err
	}
	if doc.ID == "" {
		return domain.Assignment{}, fmt.Errorf("assignment document has no identity")
	}
	return domain.Assignment{
		ID:          doc.ID,
		CreatorID:   attrs.UserID,
		Title:       attrs.Title,
		Description: attrs.Description,
		Deadline:    parseTime(attrs.Deadline),
		FileID:      nonEmpty(attrs.FileID),
		Status:      domain.AssignmentStatus(attrs.Status),
		CreatedAt:   orFallback(doc.CreatedAt, parseTime(attrs.CreatedAt)),
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func DecodeSubmission(doc appwrite.Document) (domain.Submission, error) {
	var attrs submissionAttrs
	if err := doc.Decode(&attrs); err != nil {
		return domain.Submission{}, err
	}
	if doc.ID == "" {
		return domain.Submission{}, fmt.Errorf("submission document has no identity")
	}
	submittedAt := parseTime(attrs.SubmittedAt)
	return domain.Submission{
		ID:           doc.ID,
		AssignmentID: attrs.AssignmentID,
		StudentID:    attrs.StudentID,
		FileID:       attrs.FileID,
		Notes:        nonEmpty(attrs.Notes),
		SubmittedAt:  orFallback(submittedAt, doc.CreatedAt),
		Status:       domain.SubmissionStatus(attrs.Status),
		Grade:        nonEmpty(attrs.Grade),
		CreatedAt:    orFallback(doc.CreatedAt, submittedAt),
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func DecodeUser(doc appwrite.Document) (domain.UserProfile, error) {
	var attrs userAttrs
	if err := doc.Decode(&attrs); err != nil {
		return domain.UserProfile{}, err
	}
	if doc.ID == "" {
		return domain.UserProfile{}, fmt.Errorf("user document has no identity")
	}
	return domain.UserProfile{
		ID:        doc.ID,
		Name:      attrs.Name,
		Email:     attrs.Email,
		Role:      domain.ToRole(attrs.Role),
		CreatedAt: orFallback(parseTime(attrs.CreatedAt), doc.CreatedAt),
	}, nil
}

func DecodeMessage(doc appwrite.Document) (domain.Message, error) {
	var attrs messageAttrs
	if err := doc.Decode(&attrs); err != nil {
		return domain.Message{}, err
	}
	if doc.ID == "" {
		return domain.Message{}, fmt.Errorf("message document has no identity")
	}
	return domain.Message{
		ID:         doc.ID,
		SenderID:   attrs.SenderID,
		SenderName: attrs.SenderName,
		Subject:    attrs.Subject,
		Content:    attrs.Content,
		SentAt:     orFallback(parseTime(attrs.SentAt), doc.CreatedAt),
	}, nil
}

func decodeAll[T any](docs []appwrite.Document, decode func(appwrite.Document) (T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
