// Package chatclient is the Go client for the conversation API: snapshot
// fetching, message send, typing signals, and a polling loop that keeps a
// thread view current without any push channel.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ridermarket/internal/conversation"
	"github.com/ridermarket/internal/model"
)

const sessionHeader = "X-Session-Token"

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New builds a client for the API at baseURL. token may be empty for
// anonymous reads.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set(sessionHeader, c.token)
	}
	return c.httpc.Do(req)
}

// Snapshot fetches the full current state of one thread.
func (c *Client) Snapshot(ctx context.Context, contactRequestID string) (*conversation.Snapshot, error) {
	url := fmt.Sprintf("%s/api/conversations/%s/messages", c.baseURL, contactRequestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("chatclient.Snapshot: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("chatclient.Snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chatclient.Snapshot: status %d", resp.StatusCode)
	}
	var snap conversation.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("chatclient.Snapshot decode: %w", err)
	}
	return &snap, nil
}

type sendRequest struct {
	ContactRequestID string `json:"contactRequestId"`
	Text             string `json:"text"`
}

// Send posts one message. The returned message is nil on any non-2xx
// status, so callers keep their draft text unless the send definitely
// succeeded.
func (c *Client) Send(ctx context.Context, contactRequestID, text string) (*model.Message, error) {
	body, err := json.Marshal(sendRequest{ContactRequestID: contactRequestID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("chatclient.Send: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chatclient.Send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("chatclient.Send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chatclient.Send: status %d", resp.StatusCode)
	}
	var m model.Message
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("chatclient.Send decode: %w", err)
	}
	return &m, nil
}

type typingRequest struct {
	ContactRequestID string `json:"contactRequestId"`
}

// NotifyTyping posts a composing signal. Best effort; the server expires
// the signal on its own.
func (c *Client) NotifyTyping(ctx context.Context, contactRequestID string) error {
	body, err := json.Marshal(typingRequest{ContactRequestID: contactRequestID})
	if err != nil {
		return fmt.Errorf("chatclient.NotifyTyping: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/typing", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chatclient.NotifyTyping: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("chatclient.NotifyTyping: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chatclient.NotifyTyping: status %d", resp.StatusCode)
	}
	return nil
}
