// Package mesh implements the client for the mesh messaging gateway:
// a websocket stream for inbound messages and HTTP calls for outbound
// sends. Stream-level framing, encryption and identity resolution live
// in the gateway.
package mesh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const requestTimeout = 30 * time.Second

// Envelope is an inbound message frame from the gateway stream
type Envelope struct {
	ID          string          `json:"id"`
	ConvID      string          `json:"convId"`
	ConvType    string          `json:"convType"` // "dm" or "group"
	SenderID    string          `json:"senderId"`
	ContentType string          `json:"contentType"`
	Text        string          `json:"text,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Mentions    []string        `json:"mentions,omitempty"`
	SentAtMs    int64           `json:"sentAtMs"`
}

// Conversation is gateway conversation metadata
type Conversation struct {
	ID       string `json:"id"`
	ConvType string `json:"convType"`
	Topic    string `json:"topic,omitempty"`
}

// Client talks to a single mesh gateway node
type Client struct {
	gatewayURL string // http(s) base, e.g. http://localhost:7656
	agentKey   string
	agentID    string
	httpCli    *http.Client
}

// NewClient creates a new gateway client
func NewClient(gatewayURL, agentKey string) *Client {
	return &Client{
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		agentKey:   agentKey,
		httpCli:    &http.Client{Timeout: requestTimeout},
	}
}

// Connect verifies the gateway is reachable and learns the agent's own
// transport identity.
func (c *Client) Connect(ctx context.Context) error {
	var out struct {
		AgentID string `json:"agentId"`
	}
	if err := c.getJSON(ctx, "/v1/identity", &out); err != nil {
		return fmt.Errorf("gateway identity: %w", err)
	}
	if out.AgentID == "" {
		return fmt.Errorf("gateway returned empty agent identity")
	}
	c.agentID = out.AgentID
	fmt.Printf("[Mesh] Connected as %s\n", c.agentID)
	return nil
}

// AgentID returns the agent's transport identity (after Connect)
func (c *Client) AgentID() string {
	return c.agentID
}

// Subscribe opens the inbound stream and calls handler for every frame.
// Blocks until the socket drops or ctx is cancelled, then returns the
// terminating error. The caller owns reconnection.
func (c *Client) Subscribe(ctx context.Context, handler func(*Envelope)) error {
	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.agentKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	// Close the socket when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	fmt.Println("[Mesh] Stream open")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream read: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			fmt.Printf("[Mesh] Dropping unparseable frame: %v\n", err)
			continue
		}
		handler(&env)
	}
}

// ListConversations fetches the gateway's conversation inventory; the
// gateway resynchronizes its own local state as a side effect.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.getJSON(ctx, "/v1/conversations?sync=true", &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out.Conversations, nil
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, convID, text string) error {
	return c.postJSON(ctx, "/v1/messages", map[string]any{
		"convId":      convID,
		"contentType": "text",
		"text":        text,
	}, nil)
}

// SendReaction adds an emoji reaction to a message
func (c *Client) SendReaction(ctx context.Context, convID, msgID, emoji string) error {
	return c.postJSON(ctx, "/v1/reactions", map[string]any{
		"convId": convID,
		"msgId":  msgID,
		"emoji":  emoji,
	}, nil)
}

// SendContent sends a structured payload under the given content type.
// push asks the gateway to deliver a push notification for the message.
func (c *Client) SendContent(ctx context.Context, convID, contentType string, content any, push bool) error {
	return c.postJSON(ctx, "/v1/messages", map[string]any{
		"convId":      convID,
		"contentType": contentType,
		"content":     content,
		"push":        push,
	}, nil)
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.gatewayURL)
	if err != nil {
		return "", fmt.Errorf("bad gateway url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("bad gateway scheme %q", u.Scheme)
	}
	u.Path = "/v1/stream"
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.agentKey)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.agentKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
