package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/internal/reconcile"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

// Client is a student's dashboard: every assignment and the student's own
// submissions.
type Client struct {
	view

	account domain.Account
	src     Sources

	assignments *reconcile.List[domain.Assignment]
	submissions *reconcile.List[domain.Submission]
}

func NewClient(account domain.Account, src Sources, logger *logging.Logger) *Client {
	c := &Client{
		account:     account,
		src:         src,
		assignments: reconcile.NewList[domain.Assignment](),
		submissions: reconcile.NewList[domain.Submission](),
	}
	c.view.init(src.Realtime, logger)
	return c
}

func (c *Client) Mount(ctx context.Context) error {
	own := func(s domain.Submission) bool { return s.StudentID == c.account.ID }
	bindings := []binding{
		{kind: domain.KindAssignments, onEvent: mergeInto(c.assignments, nil)},
		{kind: domain.KindSubmissions, onEvent: mergeInto(c.submissions, own)},
	}
	loaders := []loader{
		load(c.assignments, c.src.Assignments.ListAll),
		load(c.submissions, func(ctx context.Context) ([]domain.Submission, error) {
			return c.src.Submissions.ListByStudent(ctx, c.account.ID)
		}),
	}
	return c.mount(ctx, bindings, loaders)
}

func (c *Client) Assignments(query string) []domain.Assignment {
	return Filter(c.assignments.Snapshot(), query)
}

func (c *Client) Submissions() []domain.Submission {
	return c.submissions.Snapshot()
}

// SubmissionFor returns the newest own submission for an assignment.
func (c *Client) SubmissionFor(assignmentID string) (domain.Submission, bool) {
	for _, s := range c.submissions.Snapshot() {
		if s.AssignmentID == assignmentID {
			return s, true
		}
	}
	return domain.Submission{}, false
}

// Submit uploads the work and records the submission. Nothing is listed
// until the backend confirms it.
func (c *Client) Submit(ctx context.Context, assignmentID string, work Attachment, notes string) (domain.Submission, error) {
	if assignmentID == "" {
		return domain.Submission{}, fmt.Errorf("%w: assignment id is empty", errdefs.ErrValidation)
	}
	if work.Content == nil {
		return domain.Submission{}, fmt.Errorf("%w: a file is required", errdefs.ErrValidation)
	}
	fileID, err := upload(ctx, c.src.Files, &work)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submit: %w", err)
	}

	input := domain.NewSubmission{
		AssignmentID: assignmentID,
		StudentID:    c.account.ID,
		FileID:       fileID,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		input.Notes = &notes
	}
	created, err := c.src.Submissions.Create(ctx, input)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submit: %w", err)
	}
	c.submissions.Merge(created)
	c.logger.Info(ctx, "submission created",
		zap.String("submission_id", created.ID),
		zap.String("assignment_id", assignmentID),
	)
	return created, nil
}

// Contact sends a note to the administrators.
func (c *Client) Contact(ctx context.Context, subject, content string) (domain.Message, error) {
	input := domain.NewMessage{
		SenderID:   c.account.ID,
		SenderName: c.account.Name,
		Subject:    subject,
		Content:    content,
	}
	if err := gateway.Validate(input); err != nil {
		return domain.Message{}, err
	}
	if c.src.Messages == nil {
		return domain.Message{}, fmt.Errorf("contact: %w", errdefs.ErrNotConfigured)
	}
	return c.src.Messages.Create(ctx, input)
}

func (c *Client) FileURLs(fileID string) (view, download string) {
	return FileURLs(c.src.Files, fileID)
}
