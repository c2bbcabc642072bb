// Package client is the Go client for the agent console API. It owns the
// streaming chat consumer wiring, the approval and answer sub-protocols, and
// thin wrappers over the CRUD endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/stream"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// ErrTurnInFlight is returned when a chat turn is started while another one
// is still streaming. Sends are single-flight per client.
var ErrTurnInFlight = errors.New("a chat turn is already in flight")

// Client talks to one agent console server on behalf of one user session.
type Client struct {
	baseURL    string
	token      string
	sessionID  string
	httpClient *http.Client
	logger     *logger.Logger

	inFlight atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// New creates a client for the given server, bearer token, and session.
func New(baseURL, token, sessionID string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		token:     token,
		sessionID: sessionID,
		// Chat streams run long; rely on context for cancellation.
		httpClient: &http.Client{Timeout: 0},
		logger:     logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the session this client operates on.
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doJSON performs a request and decodes a JSON response into out (which may
// be nil). Non-2xx responses are returned as errors carrying the server's
// error message when one is present.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}

// Save implements stream.Saver by posting to the save-message endpoint. The
// consumer invokes it exactly once per finished turn.
func (c *Client) Save(ctx context.Context, role model.Role, content string, metadata map[string]any) error {
	// A short deadline keeps a slow persistence path from stalling the CLI
	// after the turn has already rendered.
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.doJSON(ctx, http.MethodPost, "/api/save-message?session_id="+c.sessionID, &model.SaveMessageRequest{
		Role:     role,
		Content:  content,
		Metadata: metadata,
	}, nil)
}

// ChatResult is the outcome of one send: either a streamed turn or, for
// slash commands, a single command response.
type ChatResult struct {
	Turn    *stream.Turn
	Command *model.CommandResponse
}

// SendChat runs one chat turn, driving renderer as records arrive. The user
// message is persisted before the request; the assistant turn is persisted by
// the consumer when the stream ends.
func (c *Client) SendChat(ctx context.Context, req *model.ChatRequest, renderer stream.Renderer) (*ChatResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}
	defer c.inFlight.Store(false)

	isCommand := strings.HasPrefix(req.Message, "/")
	if !isCommand {
		if err := c.Save(ctx, model.RoleUser, req.Message, nil); err != nil {
			c.logger.Warn("failed to persist user message", "error", err)
		}
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/chat?session_id="+c.sessionID, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	// Slash commands come back as a single JSON document.
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var cmd model.CommandResponse
		if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
			return nil, fmt.Errorf("failed to decode command response: %w", err)
		}
		return &ChatResult{Command: &cmd}, nil
	}

	var saver stream.Saver
	if !isCommand {
		saver = c
	}
	consumer := stream.NewConsumer(renderer, saver, c.logger)
	turn, err := consumer.Run(ctx, resp.Body)
	if err != nil {
		return &ChatResult{Turn: turn}, err
	}
	return &ChatResult{Turn: turn}, nil
}

// SendAnswers collapses the user's selections for a paused turn's questions
// into the synthesized follow-up message and sends it as a new turn.
func (c *Client) SendAnswers(ctx context.Context, questions []model.Question, selections map[string]stream.Selection, history []model.ChatMessage, renderer stream.Renderer) (*ChatResult, error) {
	answers := stream.CollectAnswers(questions, selections)
	message := stream.SynthesizeMessage(questions, answers)
	if message == "" {
		return nil, fmt.Errorf("no answers were provided")
	}

	return c.SendChat(ctx, &model.ChatRequest{
		Message: message,
		History: history,
	}, renderer)
}

// ApproveOperation grants permission for a pending operation. The server
// executes it before responding; the execution result rides back.
func (c *Client) ApproveOperation(ctx context.Context, logID int64) (*model.ApproveResponse, error) {
	var resp model.ApproveResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/operations/%d/approve", logID), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RejectOperation denies a pending operation. Rejection is terminal.
func (c *Client) RejectOperation(ctx context.Context, logID int64, reason string) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/operations/%d/reject", logID), &model.RejectRequest{Reason: reason}, nil)
}
