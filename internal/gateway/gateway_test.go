package gateway_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/internal/gateway/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var testCollections = gateway.Collections{
	DatabaseID:    "db",
	UsersID:       "users",
	AssignmentsID: "orders",
	SubmissionsID: "tasks",
	MessagesID:    "messages",
}

func setup(t *testing.T) (*gateway.Gateway, *mocks.MockDocumentStore) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mocks.NewMockDocumentStore(ctrl)
	gw := gateway.New(store, testCollections, gateway.Limits{}, nil,
		gateway.WithClock(func() time.Time { return fixedNow }))
	return gw, store
}

func doc(t *testing.T, raw string) *appwrite.Document {
	t.Helper()
	var d appwrite.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return &d
}

func docs(t *testing.T, raws ...string) *appwrite.DocumentList {
	t.Helper()
	list := &appwrite.DocumentList{Total: len(raws)}
	for _, raw := range raws {
		list.Documents = append(list.Documents, *doc(t, raw))
	}
	return list
}

const (
	assignmentPhysics = `{"$id":"a2","$createdAt":"2025-02-02T10:00:00.000+00:00","$updatedAt":"2025-02-02T10:00:00.000+00:00",
		"userId":"admin-1","title":"Physics Lab","description":"Pendulum","deadline":"2025-03-10","status":"pending"}`
	assignmentHistory = `{"$id":"a1","$createdAt":"2025-02-01T10:00:00.000+00:00","$updatedAt":"2025-02-01T10:00:00.000+00:00",
		"userId":"admin-1","title":"History Essay","description":"","deadline":"2025-03-05T23:59:00.000+00:00","fileId":"f1","status":"in-progress"}`
)

// ── Assignments ─────────────────────────────────────────────────────

func TestAssignmentsListAll(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().
			ListDocuments(gomock.Any(), "db", "orders", appwrite.OrderDesc("createdAt"), appwrite.Limit(5000)).
			Return(docs(t, assignmentPhysics, assignmentHistory), nil)

		result, err := gw.Assignments.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, result, 2)

		assert.Equal(t, "a2", result[0].ID)
		assert.Equal(t, "admin-1", result[0].CreatorID)
		assert.Equal(t, domain.AssignmentStatusPending, result[0].Status)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), result[0].Deadline)
		assert.Nil(t, result[0].FileID)

		require.NotNil(t, result[1].FileID)
		assert.Equal(t, "f1", *result[1].FileID)
		assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), result[1].CreatedAt.UTC())
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().ListDocuments(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &errdefs.ServiceError{Op: "list documents", Status: 401, Err: errdefs.ErrPermissionDenied})

		_, err := gw.Assignments.ListAll(context.Background())
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockDocumentStore(ctrl)
		gw := gateway.New(store, gateway.Collections{DatabaseID: "db"}, gateway.Limits{}, nil)

		_, err := gw.Assignments.ListAll(context.Background())
		assert.ErrorIs(t, err, errdefs.ErrNotConfigured)
	})

	t.Run("TruncatedAtCeiling", func(t *testing.T) {
		gw, store := setup(t)
		list := docs(t, assignmentPhysics)
		list.Total = 7000
		store.EXPECT().ListDocuments(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(list, nil)

		result, err := gw.Assignments.ListAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})
}

func TestAssignmentsListByCreator(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		ListDocuments(gomock.Any(), "db", "orders",
			appwrite.Equal("userId", "admin-1"), appwrite.OrderDesc("createdAt"), appwrite.Limit(5000)).
		Return(docs(t, assignmentPhysics), nil)

	result, err := gw.Assignments.ListByCreator(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Len(t, result, 1)

	_, err = gw.Assignments.ListByCreator(context.Background(), "")
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

func TestAssignmentsCreate(t *testing.T) {
	deadline := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		gw, store := setup(t)
		fileID := "file-9"

		store.EXPECT().
			CreateDocument(gomock.Any(), "db", "orders", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, id string, data any, perms []string) (*appwrite.Document, error) {
				payload := data.(map[string]any)
				assert.NotEmpty(t, id)
				assert.NotContains(t, id, "-")
				assert.Equal(t, "admin-1", payload["userId"])
				assert.Equal(t, domain.AssignmentStatusPending, payload["status"])
				assert.Equal(t, "2025-03-10T00:00:00Z", payload["deadline"])
				assert.Equal(t, "2025-03-01T12:00:00Z", payload["createdAt"])
				assert.Equal(t, "file-9", payload["fileId"])
				assert.Equal(t, []string{
					`read("users")`,
					`read("user:admin-1")`,
					`update("user:admin-1")`,
					`delete("user:admin-1")`,
				}, perms)
				return doc(t, `{"$id":"`+id+`","$createdAt":"2025-03-01T12:00:00.000+00:00","userId":"admin-1",
					"title":"Physics Lab","deadline":"2025-03-10T00:00:00Z","fileId":"file-9","status":"pending"}`), nil
			})

		result, err := gw.Assignments.Create(context.Background(), domain.NewAssignment{
			CreatorID: "admin-1",
			Title:     "Physics Lab",
			Deadline:  deadline,
			FileID:    &fileID,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, domain.AssignmentStatusPending, result.Status)
	})

	t.Run("OmitsMissingAttachment", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().
			CreateDocument(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, id string, data any, _ []string) (*appwrite.Document, error) {
				assert.NotContains(t, data.(map[string]any), "fileId")
				return doc(t, `{"$id":"`+id+`","title":"Essay","status":"pending"}`), nil
			})

		_, err := gw.Assignments.Create(context.Background(), domain.NewAssignment{
			CreatorID: "admin-1",
			Title:     "Essay",
			Deadline:  deadline,
		})
		require.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		gw, _ := setup(t)
		tests := []struct {
			name  string
			input domain.NewAssignment
		}{
			{"BlankTitle", domain.NewAssignment{CreatorID: "admin-1", Title: "   ", Deadline: deadline}},
			{"NoDeadline", domain.NewAssignment{CreatorID: "admin-1", Title: "Essay"}},
			{"NoCreator", domain.NewAssignment{Title: "Essay", Deadline: deadline}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := gw.Assignments.Create(context.Background(), tt.input)
				assert.ErrorIs(t, err, errdefs.ErrValidation)
			})
		}
	})
}

func TestAssignmentsUpdateStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().
			UpdateDocument(gomock.Any(), "db", "orders", "a1", map[string]any{"status": domain.AssignmentStatusCompleted}).
			Return(doc(t, `{"$id":"a1","title":"History Essay","status":"completed"}`), nil)

		result, err := gw.Assignments.UpdateStatus(context.Background(), "a1", domain.AssignmentStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusCompleted, result.Status)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		gw, _ := setup(t)
		_, err := gw.Assignments.UpdateStatus(context.Background(), "a1", "archived")
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("BackendUnavailable", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().UpdateDocument(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &errdefs.ServiceError{Op: "update document", Status: 503, Err: errdefs.ErrUnavailable})

		_, err := gw.Assignments.UpdateStatus(context.Background(), "a1", domain.AssignmentStatusRevision)
		assert.ErrorIs(t, err, errdefs.ErrUnavailable)
	})
}

// ── Submissions ─────────────────────────────────────────────────────

const submissionRaw = `{"$id":"s1","$createdAt":"2025-02-03T09:00:00.000+00:00",
	"assignmentId":"a1","studentId":"stu-1","fileId":"f7","notes":"","submittedAt":"2025-02-03T09:00:00.000+00:00",
	"status":"submitted","grade":null}`

func TestSubmissionsListByStudent(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		ListDocuments(gomock.Any(), "db", "tasks",
			appwrite.Equal("studentId", "stu-1"), appwrite.OrderDesc("submittedAt"), appwrite.Limit(1000)).
		Return(docs(t, submissionRaw), nil)

	result, err := gw.Submissions.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "a1", result[0].AssignmentID)
	assert.Nil(t, result[0].Notes)
	assert.Nil(t, result[0].Grade)
	assert.Equal(t, domain.SubmissionStatusSubmitted, result[0].Status)
}

func TestSubmissionsListAll(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		ListDocuments(gomock.Any(), "db", "tasks", appwrite.OrderDesc("submittedAt"), appwrite.Limit(5000)).
		Return(docs(t, submissionRaw), nil)

	result, err := gw.Submissions.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSubmissionsListByAssignment(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		ListDocuments(gomock.Any(), "db", "tasks",
			appwrite.Equal("assignmentId", "a1"), appwrite.OrderDesc("submittedAt"), appwrite.Limit(5000)).
		Return(docs(t, submissionRaw), nil)

	result, err := gw.Submissions.ListByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSubmissionsCreate(t *testing.T) {
	gw, store := setup(t)
	notes := "late, sorry"
	store.EXPECT().
		CreateDocument(gomock.Any(), "db", "tasks", gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, _, _, id string, data any, _ []string) (*appwrite.Document, error) {
			payload := data.(map[string]any)
			assert.Equal(t, domain.SubmissionStatusSubmitted, payload["status"])
			assert.Equal(t, "2025-03-01T12:00:00Z", payload["submittedAt"])
			assert.Equal(t, &notes, payload["notes"])
			return doc(t, `{"$id":"`+id+`","assignmentId":"a1","studentId":"stu-1","fileId":"f7",
				"notes":"late, sorry","submittedAt":"2025-03-01T12:00:00Z","status":"submitted"}`), nil
		})

	result, err := gw.Submissions.Create(context.Background(), domain.NewSubmission{
		AssignmentID: "a1",
		StudentID:    "stu-1",
		FileID:       "f7",
		Notes:        &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, result.SubmittedAt.UTC())
	require.NotNil(t, result.Notes)
	assert.Equal(t, notes, *result.Notes)

	_, err = gw.Submissions.Create(context.Background(), domain.NewSubmission{AssignmentID: "a1", StudentID: "stu-1"})
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

func TestSubmissionsUpdateStatus(t *testing.T) {
	t.Run("Graded", func(t *testing.T) {
		gw, store := setup(t)
		grade := "A-"
		store.EXPECT().
			UpdateDocument(gomock.Any(), "db", "tasks", "s1", map[string]any{
				"status": domain.SubmissionStatusGraded,
				"grade":  &grade,
			}).
			Return(doc(t, `{"$id":"s1","assignmentId":"a1","studentId":"stu-1","fileId":"f7","status":"graded","grade":"A-"}`), nil)

		result, err := gw.Submissions.UpdateStatus(context.Background(), "s1", domain.SubmissionReview{
			Status: domain.SubmissionStatusGraded,
			Grade:  &grade,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Grade)
		assert.Equal(t, "A-", *result.Grade)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		gw, _ := setup(t)
		_, err := gw.Submissions.UpdateStatus(context.Background(), "s1", domain.SubmissionReview{Status: "lost"})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("NotFound", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().UpdateDocument(gomock.Any(), gomock.Any(), gomock.Any(), "missing", gomock.Any()).
			Return(nil, &errdefs.ServiceError{Op: "update document", Status: 404, Err: errdefs.ErrNotFound})

		_, err := gw.Submissions.UpdateStatus(context.Background(), "missing", domain.SubmissionReview{Status: domain.SubmissionStatusRejected})
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})
}

// ── Users ───────────────────────────────────────────────────────────

func TestUsersGet(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().GetDocument(gomock.Any(), "db", "users", "u1").
			Return(doc(t, `{"$id":"u1","name":"Ada","email":"ada@example.com","role":"admin","createdAt":"2025-01-01T00:00:00Z"}`), nil)

		user, err := gw.Users.Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), user.CreatedAt)
	})

	t.Run("UnknownRoleIsClient", func(t *testing.T) {
		gw, store := setup(t)
		store.EXPECT().GetDocument(gomock.Any(), "db", "users", "u2").
			Return(doc(t, `{"$id":"u2","name":"Bob","email":"bob@example.com","role":"superuser"}`), nil)

		user, err := gw.Users.Get(context.Background(), "u2")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleClient, user.Role)
	})
}

func TestUsersCreate(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		CreateDocument(gomock.Any(), "db", "users", "u3", map[string]any{
			"name":      "Cleo",
			"email":     "cleo@example.com",
			"role":      domain.RoleClient,
			"createdAt": "2025-03-01T12:00:00Z",
		}, gomock.Nil()).
		Return(doc(t, `{"$id":"u3","name":"Cleo","email":"cleo@example.com","role":"client","createdAt":"2025-03-01T12:00:00Z"}`), nil)

	user, err := gw.Users.Create(context.Background(), domain.NewUserProfile{ID: "u3", Name: "Cleo", Email: "cleo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u3", user.ID)

	_, err = gw.Users.Create(context.Background(), domain.NewUserProfile{ID: "u4", Name: "Dan", Email: "not-an-email"})
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

// ── Messages ────────────────────────────────────────────────────────

func TestMessages(t *testing.T) {
	gw, store := setup(t)
	store.EXPECT().
		ListDocuments(gomock.Any(), "db", "messages", appwrite.OrderDesc("sentAt"), appwrite.Limit(5000)).
		Return(docs(t, `{"$id":"m1","senderId":"stu-1","senderName":"Eve","subject":"Deadline","content":"Can I get an extension?","sentAt":"2025-02-10T08:00:00Z"}`), nil)
	store.EXPECT().
		CreateDocument(gomock.Any(), "db", "messages", gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, _, _, id string, data any, _ []string) (*appwrite.Document, error) {
			assert.Equal(t, "2025-03-01T12:00:00Z", data.(map[string]any)["sentAt"])
			return doc(t, `{"$id":"`+id+`","senderId":"stu-1","senderName":"Eve","subject":"Thanks","content":"Got it","sentAt":"2025-03-01T12:00:00Z"}`), nil
		})

	list, err := gw.Messages.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Deadline", list[0].Subject)

	msg, err := gw.Messages.Create(context.Background(), domain.NewMessage{
		SenderID:   "stu-1",
		SenderName: "Eve",
		Subject:    "Thanks",
		Content:    "Got it",
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, msg.SentAt.UTC())
}
