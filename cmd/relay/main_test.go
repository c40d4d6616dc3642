package main

import (
	"context"
	"testing"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAccounts struct {
	errs  []error
	calls int
}

func (s *scriptedAccounts) CreateEmailSession(_ context.Context, email, _ string) (*appwrite.Session, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &appwrite.Session{UserID: email, Secret: "relay-secret"}, nil
}

func TestSignIn(t *testing.T) {
	policy := retry.Policy{Attempts: 4, BaseDelay: time.Millisecond}
	unavailable := &errdefs.ServiceError{Op: "create session", Status: 503, Err: errdefs.ErrUnavailable}

	t.Run("retries while unavailable", func(t *testing.T) {
		accounts := &scriptedAccounts{errs: []error{unavailable, unavailable}}

		sess, err := signIn(context.Background(), accounts, "relay@example.com", "pw", policy)
		require.NoError(t, err)
		assert.Equal(t, "relay-secret", sess.Secret)
		assert.Equal(t, 3, accounts.calls)
	})

	t.Run("bad credentials fail at once", func(t *testing.T) {
		accounts := &scriptedAccounts{errs: []error{
			&errdefs.ServiceError{Op: "create session", Status: 401, Err: errdefs.ErrAuthentication},
		}}

		_, err := signIn(context.Background(), accounts, "relay@example.com", "wrong", policy)
		assert.ErrorIs(t, err, errdefs.ErrAuthentication)
		assert.Equal(t, 1, accounts.calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		accounts := &scriptedAccounts{errs: []error{unavailable, unavailable, unavailable, unavailable}}

		_, err := signIn(context.Background(), accounts, "relay@example.com", "pw", policy)
		assert.ErrorIs(t, err, errdefs.ErrUnavailable)
		assert.Equal(t, 4, accounts.calls)
	})
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"single value", []string{"kafka:9092"}, []string{"kafka:9092"}},
		{"multiple values", []string{"broker1:9092", "broker2:9092"}, []string{"broker1:9092", "broker2:9092"}},
		{"with spaces", []string{" broker1:9092 ", " broker2:9092"}, []string{"broker1:9092", "broker2:9092"}},
		{"unsplit csv", []string{"broker1:9092,broker2:9092,"}, []string{"broker1:9092", "broker2:9092"}},
		{"empty", nil, []string{}},
		{"spaces only entries", []string{" ", ""}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitAndTrim(tt.in))
		})
	}
}

func TestRelayChannels(t *testing.T) {
	t.Run("all collections", func(t *testing.T) {
		got := relayChannels(gateway.Collections{
			DatabaseID:    "db",
			UsersID:       "users",
			AssignmentsID: "orders",
			SubmissionsID: "tasks",
			MessagesID:    "messages",
		}, nil)
		assert.Equal(t, []string{
			"databases.db.collections.orders.documents",
			"databases.db.collections.tasks.documents",
			"databases.db.collections.users.documents",
			"databases.db.collections.messages.documents",
		}, got)
	})

	t.Run("skips unset collections", func(t *testing.T) {
		got := relayChannels(gateway.Collections{DatabaseID: "db", AssignmentsID: "orders"}, nil)
		assert.Equal(t, []string{"databases.db.collections.orders.documents"}, got)
	})

	t.Run("no database", func(t *testing.T) {
		assert.Empty(t, relayChannels(gateway.Collections{AssignmentsID: "orders"}, nil))
	})
}
