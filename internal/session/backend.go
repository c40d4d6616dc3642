package session

import (
	"context"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
)

//go:generate mockgen -source=backend.go -destination=mocks/backend.go -package=mocks

// Backend is the authentication surface of the backend. Calls that act as
// a signed-in user take that user's session secret.
type Backend interface {
	CreateAccount(ctx context.Context, userID, email, password, name string) (*appwrite.User, error)
	CreateSession(ctx context.Context, email, password string) (*appwrite.Session, error)
	GetAccount(ctx context.Context, secret string) (*appwrite.User, error)
	DeleteSession(ctx context.Context, secret string) error
	GetProfile(ctx context.Context, secret, userID string) (domain.UserProfile, error)
	CreateProfile(ctx context.Context, secret string, input domain.NewUserProfile) (domain.UserProfile, error)
}

// Cache holds resolved roles between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// AppwriteBackend binds the REST client and the users collection to a
// session secret per call.
type AppwriteBackend struct {
	client      *appwrite.Client
	collections gateway.Collections
	logger      *logging.Logger
}

func NewAppwriteBackend(client *appwrite.Client, collections gateway.Collections, logger *logging.Logger) *AppwriteBackend {
	return &AppwriteBackend{client: client, collections: collections, logger: logger}
}

func (b *AppwriteBackend) users(secret string) *gateway.UserGateway {
	return gateway.New(b.client.WithSession(secret), b.collections, gateway.Limits{}, b.logger).Users
}

func (b *AppwriteBackend) CreateAccount(ctx context.Context, userID, email, password, name string) (*appwrite.User, error) {
	return b.client.WithSession("").CreateAccount(ctx, userID, email, password, name)
}

func (b *AppwriteBackend) CreateSession(ctx context.Context, email, password string) (*appwrite.Session, error) {
	return b.client.WithSession("").CreateEmailSession(ctx, email, password)
}

func (b *AppwriteBackend) GetAccount(ctx context.Context, secret string) (*appwrite.User, error) {
	return b.client.WithSession(secret).GetAccount(ctx)
}

func (b *AppwriteBackend) DeleteSession(ctx context.Context, secret string) error {
	return b.client.WithSession(secret).DeleteCurrentSession(ctx)
}

func (b *AppwriteBackend) GetProfile(ctx context.Context, secret, userID string) (domain.UserProfile, error) {
	return b.users(secret).Get(ctx, userID)
}

func (b *AppwriteBackend) CreateProfile(ctx context.Context, secret string, input domain.NewUserProfile) (domain.UserProfile, error) {
	return b.users(secret).Create(ctx, input)
}
