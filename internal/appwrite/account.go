package appwrite

import (
	"context"
	"net/http"
)

type User struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
}

func (c *Client) CreateAccount(ctx context.Context, userID, email, password, name string) (*User, error) {
	req, err := jsonRequest("create account", http.MethodPost, "/account", map[string]string{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return nil, err
	}
	var user User
	if _, err := c.do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateEmailSession opens a session. The secret comes from the response
// body when the backend returns it, otherwise from the session cookie.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*Session, error) {
	req, err := jsonRequest("create session", http.MethodPost, "/account/sessions/email", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var session Session
	resp, err := c.do(ctx, req, &session)
	if err != nil {
		return nil, err
	}
	if session.Secret == "" {
		session.Secret = sessionFromCookies(resp.Cookies(), c.project)
	}
	return &session, nil
}

func (c *Client) GetAccount(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, request{op: "get account", method: http.MethodGet, path: "/account"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteCurrentSession(ctx context.Context) error {
	_, err := c.do(ctx, request{op: "delete session", method: http.MethodDelete, path: "/account/sessions/current"}, nil)
	return err
}

func sessionFromCookies(cookies []*http.Cookie, project string) string {
	name := "a_session_" + project
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
