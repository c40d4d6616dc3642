package gateway

import (
	"context"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
)

type UserGateway struct {
	base
	collection string
}

func (g *UserGateway) CollectionID() string {
	return g.collection
}

func (g *UserGateway) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	docs, err := g.list(ctx, "list users", g.collection, "createdAt", g.limits.List)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeUser)
}

// Get fetches the profile stored under the authentication identity.
func (g *UserGateway) Get(ctx context.Context, id string) (domain.UserProfile, error) {
	const op = "get user"
	if id == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: user id is empty", errdefs.ErrValidation)
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.UserProfile{}, err
	}
	doc, err := g.store.GetDocument(ctx, g.db, g.collection, id)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeUser(*doc)
}

// Create stores the profile document keyed by the account identity.
func (g *UserGateway) Create(ctx context.Context, input domain.NewUserProfile) (domain.UserProfile, error) {
	const op = "create user"
	if input.Role == "" {
		input.Role = domain.RoleClient
	}
	if err := Validate(input); err != nil {
		return domain.UserProfile{}, err
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.UserProfile{}, err
	}
	payload := map[string]any{
		"name":      input.Name,
		"email":     input.Email,
		"role":      input.Role,
		"createdAt": formatTime(g.now()),
	}
	doc, err := g.store.CreateDocument(ctx, g.db, g.collection, input.ID, payload, nil)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeUser(*doc)
}
