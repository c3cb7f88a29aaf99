// Package api is the HTTP transport adapter for the parley backend. One
// Client carries the base endpoint, the default content type, and the
// bearer credential; call sites never build headers themselves.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenSource yields the current bearer credential, or "" when the session
// holds none.
type TokenSource func() string

// StatusError is a non-2xx response. Message holds the server's message
// field when the body carried one.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// Client talks to the backend API.
type Client struct {
	base      string
	http      *http.Client
	token     TokenSource
	observers []ResponseObserver
}

// New builds a Client rooted at base (e.g. "http://localhost:5000/api").
func New(base string, token TokenSource) *Client {
	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 30 * time.Second},
		token: token,
	}
}

// Observe registers a response observer. Observers see the status of every
// completed request attempt and may not alter responses. Registration
// happens once at program wiring; there is no unregister.
func (c *Client) Observe(obs ResponseObserver) {
	c.observers = append(c.observers, obs)
}

func (c *Client) notify(att *Attempt, status int) {
	for _, obs := range c.observers {
		obs.ObserveResponse(att, status)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, readErr := io.ReadAll(resp.Body)

	c.notify(&Attempt{}, resp.StatusCode)

	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}
	if readErr != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, readErr)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// serverMessage pulls the message field out of an error body, tolerating
// non-JSON bodies.
func serverMessage(raw []byte) string {
	var body messageResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates an account and returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/register", registerRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Profile resolves the current user's display name.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return "", err
	}
	return resp.User.Name, nil
}

// UpdateProfile applies profile mutations and returns the server message.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPut, "/profile", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Chats lists the user's conversations.
func (c *Client) Chats(ctx context.Context) ([]Chat, error) {
	var resp chatsResponse
	if err := c.do(ctx, http.MethodGet, "/chats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// CreateChat opens a new conversation seeded with an initial message and
// returns the created chat plus any immediate responder segments.
func (c *Client) CreateChat(ctx context.Context, name, initialMessage string) (Chat, []string, error) {
	var resp createChatResponse
	err := c.do(ctx, http.MethodPost, "/chats", createChatRequest{Name: name, InitialMessage: initialMessage}, &resp)
	if err != nil {
		return Chat{}, nil, err
	}
	return resp.Chat, resp.AIResponses, nil
}

// DeleteChat removes a conversation.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/chats/"+chatID, nil, nil)
}

// Messages fetches the full message list of one conversation.
func (c *Client) Messages(ctx context.Context, chatID string) ([]Message, error) {
	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, "/chats/"+chatID+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a user message and returns the responder segments.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) ([]string, error) {
	var resp sendMessageResponse
	err := c.do(ctx, http.MethodPost, "/chats/"+chatID+"/messages", sendMessageRequest{Sender: SenderUser, Text: text}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.AIResponses, nil
}

// ShareChat grants another user read access to a conversation.
func (c *Client) ShareChat(ctx context.Context, chatID, email string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/chats/"+chatID+"/share", shareRequest{Email: email}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SharedChats lists conversations other users shared with the current one.
func (c *Client) SharedChats(ctx context.Context) ([]Chat, error) {
	var resp sharedChatsResponse
	if err := c.do(ctx, http.MethodGet, "/shared-chats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.SharedChats, nil
}
