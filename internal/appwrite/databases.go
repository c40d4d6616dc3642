package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Document is a stored record: backend metadata plus the raw attribute
// payload, decoded by the caller into its own type.
type Document struct {
	ID           string
	CollectionID string
	DatabaseID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Raw          json.RawMessage
}

type documentMeta struct {
	ID           string    `json:"$id"`
	CollectionID string    `json:"$collectionId"`
	DatabaseID   string    `json:"$databaseId"`
	CreatedAt    time.Time `json:"$createdAt"`
	UpdatedAt    time.Time `json:"$updatedAt"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var meta documentMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	d.ID = meta.ID
	d.CollectionID = meta.CollectionID
	d.DatabaseID = meta.DatabaseID
	d.CreatedAt = meta.CreatedAt
	d.UpdatedAt = meta.UpdatedAt
	d.Raw = append(d.Raw[:0], data...)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(documentMeta{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		DatabaseID:   d.DatabaseID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	})
}

// Decode unmarshals the document attributes into out.
func (d Document) Decode(out any) error {
	if err := json.Unmarshal(d.Raw, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

type Query string

type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func newQuery(q query) Query {
	data, _ := json.Marshal(q)
	return Query(data)
}

func OrderDesc(attribute string) Query {
	return newQuery(query{Method: "orderDesc", Attribute: attribute})
}

func OrderAsc(attribute string) Query {
	return newQuery(query{Method: "orderAsc", Attribute: attribute})
}

func Equal(attribute string, values ...any) Query {
	return newQuery(query{Method: "equal", Attribute: attribute, Values: values})
}

func Limit(n int) Query {
	return newQuery(query{Method: "limit", Values: []any{n}})
}

// Permission strings in the backend's role grammar.
func PermissionRead(role string) string { return fmt.Sprintf("read(%q)", role) }
func PermissionUpdate(role string) string { return fmt.Sprintf("update(%q)", role) }
func PermissionDelete(role string) string { return fmt.Sprintf("delete(%q)", role) }

func RoleUsers() string { return "users" }
func RoleUser(userID string) string { return "user:" + userID }

func documentsPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}

func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, permissions []string) (*Document, error) {
	payload := map[string]any{
		"documentId": documentID,
		"data":       data,
	}
	if len(permissions) > 0 {
		payload["permissions"] = permissions
	}
	req, err := jsonRequest("create document", http.MethodPost, documentsPath(databaseID, collectionID), payload)
	if err != nil {
		return nil, err
	}
	var doc Document
	if _, err := c.do(ctx, req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (*Document, error) {
	req := request{
		op:     "get document",
		method: http.MethodGet,
		path:   documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID),
	}
	var doc Document
	if _, err := c.do(ctx, req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (*DocumentList, error) {
	values := url.Values{}
	for _, q := range queries {
		values.Add("queries[]", string(q))
	}
	req := request{
		op:     "list documents",
		method: http.MethodGet,
		path:   documentsPath(databaseID, collectionID),
		query:  values,
	}
	var list DocumentList
	if _, err := c.do(ctx, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (*Document, error) {
	req, err := jsonRequest("update document", http.MethodPatch,
		documentsPath(databaseID, collectionID)+"/"+url.PathEscape(documentID),
		map[string]any{"data": data},
	)
	if err != nil {
		return nil, err
	}
	var doc Document
	if _, err := c.do(ctx, req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
