package mocks

import (
	"context"
	"io"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/stretchr/testify/mock"
)

type Assignments struct {
	mock.Mock
}

func (m *Assignments) ListAll(ctx context.Context) ([]domain.Assignment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Assignment), args.Error(1)
}

func (m *Assignments) Create(ctx context.Context, input domain.NewAssignment) (domain.Assignment, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Assignment), args.Error(1)
}

func (m *Assignments) UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus) (domain.Assignment, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Assignment), args.Error(1)
}

type Submissions struct {
	mock.Mock
}

func (m *Submissions) ListAll(ctx context.Context) ([]domain.Submission, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Submission), args.Error(1)
}

func (m *Submissions) ListByStudent(ctx context.Context, studentID string) ([]domain.Submission, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]domain.Submission), args.Error(1)
}

func (m *Submissions) Create(ctx context.Context, input domain.NewSubmission) (domain.Submission, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *Submissions) UpdateStatus(ctx context.Context, id string, review domain.SubmissionReview) (domain.Submission, error) {
	args := m.Called(ctx, id, review)
	return args.Get(0).(domain.Submission), args.Error(1)
}

type Users struct {
	mock.Mock
}

func (m *Users) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}

type Messages struct {
	mock.Mock
}

func (m *Messages) ListAll(ctx context.Context) ([]domain.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *Messages) Create(ctx context.Context, input domain.NewMessage) (domain.Message, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Message), args.Error(1)
}

type Files struct {
	mock.Mock
}

func (m *Files) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	args := m.Called(ctx, name, content)
	return args.String(0), args.Error(1)
}

func (m *Files) ViewURL(fileID string) string {
	return m.Called(fileID).String(0)
}

func (m *Files) DownloadURL(fileID string) string {
	return m.Called(fileID).String(0)
}
