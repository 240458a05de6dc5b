package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the messaging gateway's REST API. It implements
// Messenger; native gateway failures are wrapped around the package
// sentinels so the core can classify them.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a gateway client. baseURL points at the gateway API
// root; token authenticates this service to the gateway.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway %s: encode: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gateway %s: read: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("gateway %s: decode: %w", method, err)
	}
	if !apiResp.OK {
		return c.classify(method, resp.StatusCode, apiResp.Description)
	}
	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("gateway %s: decode result: %w", method, err)
		}
	}
	return nil
}

// classify maps a gateway rejection to one of the sentinel classes.
func (c *Client) classify(method string, status int, description string) error {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "bots can't send messages to bots"):
		return fmt.Errorf("gateway %s: %s: %w", method, description, ErrBotTarget)
	case status == http.StatusForbidden:
		return fmt.Errorf("gateway %s: %s: %w", method, description, ErrForbidden)
	case status == http.StatusBadRequest:
		return fmt.Errorf("gateway %s: %s: %w", method, description, ErrBadRequest)
	default:
		return fmt.Errorf("gateway %s: status %d: %s", method, status, description)
	}
}

type sendTextRequest struct {
	ChatID         int64     `json:"chat_id"`
	ThreadID       int64     `json:"thread_id,omitempty"`
	Text           string    `json:"text"`
	HTML           bool      `json:"html,omitempty"`
	DisablePreview bool      `json:"disable_preview,omitempty"`
	Keyboard       *Keyboard `json:"keyboard,omitempty"`
	RemoveKeyboard bool      `json:"remove_keyboard,omitempty"`
}

func (c *Client) SendText(ctx context.Context, targetID int64, text string, opts SendOptions) (MessageHandle, error) {
	var handle MessageHandle
	err := c.call(ctx, "sendText", sendTextRequest{
		ChatID:         targetID,
		ThreadID:       opts.ThreadID,
		Text:           text,
		HTML:           opts.HTML,
		DisablePreview: opts.DisablePreview,
		Keyboard:       opts.Keyboard,
		RemoveKeyboard: opts.RemoveKeyboard,
	}, &handle)
	return handle, err
}

func (c *Client) SendDocument(ctx context.Context, targetID int64, filePath, caption string) (MessageHandle, error) {
	var handle MessageHandle
	err := c.call(ctx, "sendDocument", map[string]any{
		"chat_id":   targetID,
		"file_path": filePath,
		"caption":   caption,
	}, &handle)
	return handle, err
}

func (c *Client) ForwardMessage(ctx context.Context, ref MessageRef, targetThreadID int64) (MessageHandle, error) {
	var handle MessageHandle
	err := c.call(ctx, "forwardMessage", map[string]any{
		"from_chat_id":     ref.ChatID,
		"message_id":       ref.MessageID,
		"target_thread_id": targetThreadID,
	}, &handle)
	return handle, err
}

func (c *Client) CopyMessage(ctx context.Context, ref MessageRef, targetID int64) (MessageHandle, error) {
	var handle MessageHandle
	err := c.call(ctx, "copyMessage", map[string]any{
		"from_chat_id":   ref.ChatID,
		"message_id":     ref.MessageID,
		"target_chat_id": targetID,
	}, &handle)
	return handle, err
}

func (c *Client) EditText(ctx context.Context, targetID, messageID int64, text string, opts SendOptions) error {
	return c.call(ctx, "editText", map[string]any{
		"chat_id":    targetID,
		"message_id": messageID,
		"text":       text,
		"html":       opts.HTML,
		"keyboard":   opts.Keyboard,
	}, nil)
}

func (c *Client) CreateDiscussionThread(ctx context.Context, groupID int64, title string) (ThreadHandle, error) {
	var handle ThreadHandle
	err := c.call(ctx, "createThread", map[string]any{
		"group_id": groupID,
		"title":    title,
	}, &handle)
	return handle, err
}

func (c *Client) CloseDiscussionThread(ctx context.Context, groupID, threadID int64) error {
	return c.call(ctx, "closeThread", map[string]any{
		"group_id":  groupID,
		"thread_id": threadID,
	}, nil)
}

func (c *Client) ReopenDiscussionThread(ctx context.Context, groupID, threadID int64) error {
	return c.call(ctx, "reopenThread", map[string]any{
		"group_id":  groupID,
		"thread_id": threadID,
	}, nil)
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallback", map[string]any{
		"callback_id": callbackID,
		"text":        text,
	}, nil)
}
