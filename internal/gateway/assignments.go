package gateway

import (
	"context"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
)

type AssignmentGateway struct {
	base
	collection string
}

func (g *AssignmentGateway) CollectionID() string {
	return g.collection
}

// ListAll returns every assignment visible to the session, newest first.
func (g *AssignmentGateway) ListAll(ctx context.Context) ([]domain.Assignment, error) {
	docs, err := g.list(ctx, "list assignments", g.collection, "createdAt", g.limits.List)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeAssignment)
}

func (g *AssignmentGateway) ListByCreator(ctx context.Context, creatorID string) ([]domain.Assignment, error) {
	if creatorID == "" {
		return nil, fmt.Errorf("%w: creator id is empty", errdefs.ErrValidation)
	}
	docs, err := g.list(ctx, "list assignments by creator", g.collection, "createdAt", g.limits.List,
		appwrite.Equal("userId", creatorID))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeAssignment)
}

// Create stores a new pending assignment readable by every signed-in user
// and writable only by its creator.
func (g *AssignmentGateway) Create(ctx context.Context, input domain.NewAssignment) (domain.Assignment, error) {
	const op = "create assignment"
	if err := Validate(input); err != nil {
		return domain.Assignment{}, err
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.Assignment{}, err
	}
	id, err := newDocumentID()
	if err != nil {
		return domain.Assignment{}, err
	}

	payload := map[string]any{
		"userId":      input.CreatorID,
		"title":       input.Title,
		"description": input.Description,
		"deadline":    formatTime(input.Deadline),
		"status":      domain.AssignmentStatusPending,
		"createdAt":   formatTime(g.now()),
	}
	if input.FileID != nil {
		payload["fileId"] = *input.FileID
	}
	creator := appwrite.RoleUser(input.CreatorID)
	permissions := []string{
		appwrite.PermissionRead(appwrite.RoleUsers()),
		appwrite.PermissionRead(creator),
		appwrite.PermissionUpdate(creator),
		appwrite.PermissionDelete(creator),
	}

	doc, err := g.store.CreateDocument(ctx, g.db, g.collection, id, payload, permissions)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeAssignment(*doc)
}

func (g *AssignmentGateway) UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus) (domain.Assignment, error) {
	const op = "update assignment status"
	if id == "" {
		return domain.Assignment{}, fmt.Errorf("%w: assignment id is empty", errdefs.ErrValidation)
	}
	if !status.IsValid() {
		return domain.Assignment{}, fmt.Errorf("%w: unknown assignment status %q", errdefs.ErrValidation, status)
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.Assignment{}, err
	}
	doc, err := g.store.UpdateDocument(ctx, g.db, g.collection, id, map[string]any{"status": status})
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeAssignment(*doc)
}
