package gateway

import (
	"context"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
)

type SubmissionGateway struct {
	base
	collection string
}

func (g *SubmissionGateway) CollectionID() string {
	return g.collection
}

func (g *SubmissionGateway) ListAll(ctx context.Context) ([]domain.Submission, error) {
	docs, err := g.list(ctx, "list submissions", g.collection, "submittedAt", g.limits.List)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeSubmission)
}

// ListByStudent returns the student's own submissions under the smaller
// per-student ceiling.
func (g *SubmissionGateway) ListByStudent(ctx context.Context, studentID string) ([]domain.Submission, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is empty", errdefs.ErrValidation)
	}
	docs, err := g.list(ctx, "list submissions by student", g.collection, "submittedAt", g.limits.StudentList,
		appwrite.Equal("studentId", studentID))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeSubmission)
}

func (g *SubmissionGateway) ListByAssignment(ctx context.Context, assignmentID string) ([]domain.Submission, error) {
	if assignmentID == "" {
		return nil, fmt.Errorf("%w: assignment id is empty", errdefs.ErrValidation)
	}
	docs, err := g.list(ctx, "list submissions by assignment", g.collection, "submittedAt", g.limits.List,
		appwrite.Equal("assignmentId", assignmentID))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeSubmission)
}

// Create records a student's upload. Nothing prevents a second submission
// for the same assignment.
func (g *SubmissionGateway) Create(ctx context.Context, input domain.NewSubmission) (domain.Submission, error) {
	const op = "create submission"
	if err := Validate(input); err != nil {
		return domain.Submission{}, err
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.Submission{}, err
	}
	id, err := newDocumentID()
	if err != nil {
		return domain.Submission{}, err
	}

	payload := map[string]any{
		"assignmentId": input.AssignmentID,
		"studentId":    input.StudentID,
		"fileId":       input.FileID,
		"notes":        input.Notes,
		"submittedAt":  formatTime(g.now()),
		"status":       domain.SubmissionStatusSubmitted,
	}
	doc, err := g.store.CreateDocument(ctx, g.db, g.collection, id, payload, nil)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeSubmission(*doc)
}

// UpdateStatus writes the review outcome. A nil grade clears any previous one.
func (g *SubmissionGateway) UpdateStatus(ctx context.Context, id string, review domain.SubmissionReview) (domain.Submission, error) {
	const op = "update submission status"
	if id == "" {
		return domain.Submission{}, fmt.Errorf("%w: submission id is empty", errdefs.ErrValidation)
	}
	if err := Validate(review); err != nil {
		return domain.Submission{}, err
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.Submission{}, err
	}
	payload := map[string]any{
		"status": review.Status,
		"grade":  review.Grade,
	}
	doc, err := g.store.UpdateDocument(ctx, g.db, g.collection, id, payload)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeSubmission(*doc)
}
