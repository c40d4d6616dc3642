package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

type File struct {
	ID       string `json:"$id"`
	BucketID string `json:"bucketId"`
	Name     string `json:"name"`
	Size     int64  `json:"sizeOriginal"`
}

// CreateFile uploads content as a single multipart request.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID, name string, content io.Reader) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("fileId", fileID); err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("create file: failed to read content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	req := request{
		op:          "create file",
		method:      http.MethodPost,
		path:        "/storage/buckets/" + url.PathEscape(bucketID) + "/files",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	var file File
	if _, err := c.do(ctx, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// FileURL builds <endpoint>/storage/buckets/<bucket>/files/<file>/<mode>
// without contacting the backend. mode is "view" or "download".
func (c *Client) FileURL(bucketID, fileID, mode string) (string, error) {
	if c.endpoint == "" || bucketID == "" || fileID == "" {
		return "", fmt.Errorf("file url: endpoint, bucket and file id are required")
	}
	u := c.endpoint + "/storage/buckets/" + url.PathEscape(bucketID) + "/files/" + url.PathEscape(fileID) + "/" + mode
	if c.project != "" {
		u += "?project=" + url.QueryEscape(c.project)
	}
	return u, nil
}

// RealtimeURL is the websocket address subscribing to the given channels.
func (c *Client) RealtimeURL(channels ...string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("realtime url: endpoint or project is not set")
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("realtime url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime"
	q := url.Values{}
	q.Set("project", c.project)
	for _, ch := range channels {
		q.Add("channels[]", ch)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
