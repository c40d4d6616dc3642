package appwrite

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL + "/v1", ProjectID: "proj"}, nil)
}

func TestClient_NotConfigured(t *testing.T) {
	c := New(Config{}, nil)

	_, err := c.GetAccount(context.Background())
	assert.ErrorIs(t, err, errdefs.ErrNotConfigured)

	_, err = c.ListDocuments(context.Background(), "db", "orders")
	assert.ErrorIs(t, err, errdefs.ErrNotConfigured)
}

func TestClient_Headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proj", r.Header.Get(headerProject))
		assert.Equal(t, "secret-1", r.Header.Get(headerSession))
		assert.Equal(t, "/v1/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"$id":"u1","name":"Ada","email":"ada@example.com"}`))
	})

	user, err := c.WithSession("secret-1").GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Empty(t, c.Session(), "WithSession must not mutate the base client")
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{"Unauthorized", http.StatusUnauthorized, errdefs.ErrAuthentication},
		{"NotFound", http.StatusNotFound, errdefs.ErrNotFound},
		{"Forbidden", http.StatusForbidden, errdefs.ErrPermissionDenied},
		{"ServerError", http.StatusInternalServerError, errdefs.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope","code":1,"type":"general"}`))
			})

			_, err := c.GetDocument(context.Background(), "db", "users", "u1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expected)

			var svcErr *errdefs.ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tc.status, svcErr.Status)
			assert.Equal(t, "nope", svcErr.Message)
		})
	}
}

func TestCreateEmailSession_SecretFromCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/account/sessions/email", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "a_session_proj", Value: "cookie-secret"})
		_, _ = w.Write([]byte(`{"$id":"s1","userId":"u1","secret":""}`))
	})

	session, err := c.CreateEmailSession(context.Background(), "ada@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "cookie-secret", session.Secret)
	assert.Equal(t, "u1", session.UserID)
}

func TestListDocuments_Queries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db/collections/orders/documents", r.URL.Path)
		queries := r.URL.Query()["queries[]"]
		require.Len(t, queries, 2)
		assert.JSONEq(t, `{"method":"orderDesc","attribute":"createdAt"}`, queries[0])
		assert.JSONEq(t, `{"method":"limit","values":[5000]}`, queries[1])

		_, _ = w.Write([]byte(`{"total":1,"documents":[{"$id":"a1","$createdAt":"2024-05-01T10:00:00.000+00:00","$updatedAt":"2024-05-01T10:00:00.000+00:00","title":"Physics Lab"}]}`))
	})

	list, err := c.ListDocuments(context.Background(), "db", "orders", OrderDesc("createdAt"), Limit(5000))
	require.NoError(t, err)
	require.Len(t, list.Documents, 1)

	doc := list.Documents[0]
	assert.Equal(t, "a1", doc.ID)
	assert.Equal(t, 2024, doc.CreatedAt.Year())

	var attrs struct {
		Title string `json:"title"`
	}
	require.NoError(t, doc.Decode(&attrs))
	assert.Equal(t, "Physics Lab", attrs.Title)
}

func TestCreateDocument_Payload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-1", body["documentId"])
		assert.Equal(t, []any{`read("users")`}, body["permissions"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Essay", data["title"])
		_, _ = w.Write([]byte(`{"$id":"doc-1","title":"Essay"}`))
	})

	doc, err := c.CreateDocument(context.Background(), "db", "orders", "doc-1",
		map[string]string{"title": "Essay"}, []string{PermissionRead(RoleUsers())})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
}

func TestCreateFile_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/storage/buckets/bucket/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "file-1", r.FormValue("fileId"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "essay.pdf", hdr.Filename)
		assert.Equal(t, "content", string(data))
		_, _ = w.Write([]byte(`{"$id":"file-1","bucketId":"bucket","name":"essay.pdf"}`))
	})

	file, err := c.CreateFile(context.Background(), "bucket", "file-1", "essay.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", file.ID)
}

func TestFileURL(t *testing.T) {
	c := New(Config{Endpoint: "https://cloud.example.io/v1/", ProjectID: "proj"}, nil)

	u, err := c.FileURL("bucket", "file-1", "view")
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.example.io/v1/storage/buckets/bucket/files/file-1/view?project=proj", u)

	_, err = c.FileURL("", "file-1", "download")
	assert.Error(t, err)
}

func TestRealtimeURL(t *testing.T) {
	c := New(Config{Endpoint: "https://cloud.example.io/v1", ProjectID: "proj"}, nil)

	u, err := c.RealtimeURL(DocumentsChannel("db", "orders"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "wss://cloud.example.io/v1/realtime?"))
	assert.Contains(t, u, "channels%5B%5D=databases.db.collections.orders.documents")
	assert.Contains(t, u, "project=proj")
}
