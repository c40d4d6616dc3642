// Package gateway issues create/read/update requests for assignments,
// submissions, users and messages, and normalizes the stored documents into
// domain records. It performs no retries: every failure reaches the caller.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=gateway.go -destination=mocks/documents.go -package=mocks

// DocumentStore is the part of the backend client the gateway needs.
type DocumentStore interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, permissions []string) (*appwrite.Document, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (*appwrite.Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...appwrite.Query) (*appwrite.DocumentList, error)
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (*appwrite.Document, error)
}

type Collections struct {
	DatabaseID    string
	UsersID       string
	AssignmentsID string
	SubmissionsID string
	MessagesID    string
}

type Limits struct {
	List        int
	StudentList int
}

const (
	DefaultListLimit        = 5000
	DefaultStudentListLimit = 1000
)

type Gateway struct {
	Assignments *AssignmentGateway
	Submissions *SubmissionGateway
	Users       *UserGateway
	Messages    *MessageGateway
}

type Option func(*base)

// WithClock overrides the source of client-side timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

func New(store DocumentStore, collections Collections, limits Limits, logger *logging.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = logging.Nop()
	}
	if limits.List <= 0 {
		limits.List = DefaultListLimit
	}
	if limits.StudentList <= 0 {
		limits.StudentList = DefaultStudentListLimit
	}
	b := base{store: store, db: collections.DatabaseID, limits: limits, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return &Gateway{
		Assignments: &AssignmentGateway{base: b, collection: collections.AssignmentsID},
		Submissions: &SubmissionGateway{base: b, collection: collections.SubmissionsID},
		Users:       &UserGateway{base: b, collection: collections.UsersID},
		Messages:    &MessageGateway{base: b, collection: collections.MessagesID},
	}
}

type base struct {
	store  DocumentStore
	db     string
	limits Limits
	logger *logging.Logger
	now    func() time.Time
}

func (b base) check(op, collection string) error {
	if b.db == "" || collection == "" {
		return &errdefs.ServiceError{Op: op, Message: "database or collection id is not set", Err: errdefs.ErrNotConfigured}
	}
	return nil
}

// list fetches one page newest-first. The ceiling is a hard cap: anything
// past it is dropped, and we only log that it happened.
func (b base) list(ctx context.Context, op, collection, orderBy string, limit int, filters ...appwrite.Query) ([]appwrite.Document, error) {
	if err := b.check(op, collection); err != nil {
		return nil, err
	}
	queries := make([]appwrite.Query, 0, len(filters)+2)
	queries = append(queries, filters...)
	queries = append(queries, appwrite.OrderDesc(orderBy), appwrite.Limit(limit))
	list, err := b.store.ListDocuments(ctx, b.db, collection, queries...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list.Total > limit {
		b.logger.Warn(ctx, "list truncated at ceiling",
			zap.String("op", op),
			zap.Int("total", list.Total),
			zap.Int("limit", limit),
		)
	}
	return list.Documents, nil
}

func newDocumentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate document id: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
