package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/internal/reconcile"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TentativePrefix marks assignments shown before the backend confirmed them.
const TentativePrefix = "tentative-"

type Admin struct {
	view

	actor domain.Account
	src   Sources
	now   func() time.Time

	assignments *reconcile.List[domain.Assignment]
	submissions *reconcile.List[domain.Submission]
	users       *reconcile.List[domain.UserProfile]
	messages    *reconcile.List[domain.Message]
}

func NewAdmin(actor domain.Account, src Sources, logger *logging.Logger) *Admin {
	a := &Admin{
		actor:       actor,
		src:         src,
		now:         time.Now,
		assignments: reconcile.NewList[domain.Assignment](),
		submissions: reconcile.NewList[domain.Submission](),
		users:       reconcile.NewList[domain.UserProfile](),
		messages:    reconcile.NewList[domain.Message](),
	}
	a.view.init(src.Realtime, logger)
	return a
}

// Mount loads every list and subscribes to their realtime channels.
func (a *Admin) Mount(ctx context.Context) error {
	bindings := []binding{
		{kind: domain.KindAssignments, onEvent: mergeInto(a.assignments, nil)},
		{kind: domain.KindSubmissions, onEvent: mergeInto(a.submissions, nil)},
		{kind: domain.KindUsers, onEvent: mergeInto(a.users, nil)},
		{kind: domain.KindMessages, onEvent: mergeInto(a.messages, nil)},
	}
	loaders := []loader{
		load(a.assignments, a.src.Assignments.ListAll),
		load(a.submissions, a.src.Submissions.ListAll),
		load(a.users, a.src.Users.ListAll),
	}
	if a.src.Messages != nil {
		loaders = append(loaders, load(a.messages, a.src.Messages.ListAll))
	}
	return a.mount(ctx, bindings, loaders)
}

// ChangeAssignmentStatus shows the new status at once and confirms it with
// the backend. A rejected change is undone by refetching every assignment;
// the rejection is still returned so it can be shown.
func (a *Admin) ChangeAssignmentStatus(ctx context.Context, id string, status domain.AssignmentStatus) (reconcile.Outcome, error) {
	if !status.IsValid() {
		return reconcile.Tentative, fmt.Errorf("%w: unknown assignment status %q", errdefs.ErrValidation, status)
	}
	outcome, err := reconcile.Apply(ctx, a.assignments, reconcile.Update[domain.Assignment]{
		ID: id,
		Patch: func(current domain.Assignment) domain.Assignment {
			current.Status = status
			return current
		},
		Commit: func(ctx context.Context) (domain.Assignment, error) {
			return a.src.Assignments.UpdateStatus(ctx, id, status)
		},
		Refetch: a.src.Assignments.ListAll,
	})
	if err != nil {
		a.logger.Warn(ctx, "assignment status change not applied",
			zap.String("assignment_id", id),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
	}
	return outcome, err
}

// GradeSubmission sets a submission's status and grade with the same
// optimistic flow as ChangeAssignmentStatus.
func (a *Admin) GradeSubmission(ctx context.Context, id string, review domain.SubmissionReview) (reconcile.Outcome, error) {
	if err := gateway.Validate(review); err != nil {
		return reconcile.Tentative, err
	}
	outcome, err := reconcile.Apply(ctx, a.submissions, reconcile.Update[domain.Submission]{
		ID: id,
		Patch: func(current domain.Submission) domain.Submission {
			current.Status = review.Status
			current.Grade = review.Grade
			return current
		},
		Commit: func(ctx context.Context) (domain.Submission, error) {
			return a.src.Submissions.UpdateStatus(ctx, id, review)
		},
		Refetch: a.src.Submissions.ListAll,
	})
	if err != nil {
		a.logger.Warn(ctx, "submission review not applied",
			zap.String("submission_id", id),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
	}
	return outcome, err
}

// PostAssignment uploads the optional attachment and creates the
// assignment. A tentative entry is listed while the request is in flight
// and swapped for the confirmed record, whichever of the response and the
// realtime echo arrives first.
func (a *Admin) PostAssignment(ctx context.Context, input domain.NewAssignment, attachment *Attachment) (domain.Assignment, error) {
	input.CreatorID = a.actor.ID
	if err := gateway.Validate(input); err != nil {
		return domain.Assignment{}, err
	}

	tentativeID := TentativePrefix + uuid.NewString()
	a.assignments.Merge(domain.Assignment{
		ID:          tentativeID,
		CreatorID:   input.CreatorID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		Status:      domain.AssignmentStatusPending,
		CreatedAt:   a.now(),
	})

	if attachment != nil {
		fileID, err := upload(ctx, a.src.Files, attachment)
		if err != nil {
			a.assignments.Remove(tentativeID)
			return domain.Assignment{}, fmt.Errorf("post assignment: %w", err)
		}
		input.FileID = &fileID
	}

	created, err := a.src.Assignments.Create(ctx, input)
	if err != nil {
		a.assignments.Remove(tentativeID)
		return domain.Assignment{}, fmt.Errorf("post assignment: %w", err)
	}
	a.assignments.Replace(tentativeID, created)
	a.logger.Info(ctx, "assignment posted", zap.String("assignment_id", created.ID))
	return created, nil
}

func (a *Admin) Assignments(query string) []domain.Assignment {
	return Filter(a.assignments.Snapshot(), query)
}

func (a *Admin) Submissions(query string) []domain.Submission {
	return Filter(a.submissions.Snapshot(), query)
}

func (a *Admin) Users(query string) []domain.UserProfile {
	return Filter(a.users.Snapshot(), query)
}

func (a *Admin) Messages() []domain.Message {
	return a.messages.Snapshot()
}

// Slice is one segment of the status distribution chart.
type Slice struct {
	Status domain.AssignmentStatus `json:"status"`
	Count  int                     `json:"count"`
}

type Stats struct {
	Assignments int `json:"assignments"`
	Pending     int `json:"pending"`
	// ByStatus lists non-empty statuses in display order.
	ByStatus       []Slice `json:"byStatus"`
	Submissions    int     `json:"submissions"`
	AwaitingReview int     `json:"awaitingReview"`
	Users          int     `json:"users"`
}

// Stats summarises the current lists in a single pass over each.
func (a *Admin) Stats() Stats {
	assignments := a.assignments.Snapshot()
	submissions := a.submissions.Snapshot()

	counts := make(map[domain.AssignmentStatus]int, len(domain.AssignmentStatuses))
	for _, as := range assignments {
		counts[as.Status]++
	}
	awaiting := 0
	for _, s := range submissions {
		if s.Status == domain.SubmissionStatusSubmitted {
			awaiting++
		}
	}

	stats := Stats{
		Assignments:    len(assignments),
		Pending:        counts[domain.AssignmentStatusPending],
		ByStatus:       make([]Slice, 0, len(domain.AssignmentStatuses)),
		Submissions:    len(submissions),
		AwaitingReview: awaiting,
		Users:          a.users.Len(),
	}
	for _, status := range domain.AssignmentStatuses {
		if n := counts[status]; n > 0 {
			stats.ByStatus = append(stats.ByStatus, Slice{Status: status, Count: n})
		}
	}
	return stats
}

func (a *Admin) FileURLs(fileID string) (view, download string) {
	return FileURLs(a.src.Files, fileID)
}
