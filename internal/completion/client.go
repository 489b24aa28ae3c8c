// Package completion maps a session history onto the remote chat
// completion wire format and extracts the reply.
package completion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"parley/internal/chat"
)

const (
	completionPath = "/v1/chat/completions"
	replyPath      = "choices.0.message.content"

	defaultTimeout  = 120 * time.Second
	maxResponseSize = 8 << 20
	maxErrorBody    = 2048
)

// Options are the generation parameters forwarded opaquely with a request.
// Nil fields are omitted from the body.
type Options struct {
	Temperature       *float64
	RepetitionPenalty *float64
}

// Client issues single chat completion requests. It is stateless: the
// target address and options arrive per call, and it never retries.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a client. A nil httpClient gets a default with a
// generous timeout, since local model servers can be slow to first token.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient}
}

type wireTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends the full history to address and returns the reply text.
// Failures are one of *NetworkError, *ServiceError or
// *MalformedResponseError.
func (c *Client) Complete(ctx context.Context, address string, history []chat.Message, opts Options) (string, error) {
	body, err := buildRequestBody(history, opts)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(strings.TrimSpace(address), "/") + completionPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ServiceError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	reply := gjson.GetBytes(payload, replyPath)
	if !reply.Exists() || reply.Type != gjson.String {
		return "", &MalformedResponseError{Detail: "no reply text at " + replyPath}
	}
	return reply.String(), nil
}

func buildRequestBody(history []chat.Message, opts Options) ([]byte, error) {
	turns := make([]wireTurn, 0, len(history))
	for _, message := range history {
		role := "user"
		if message.Sender == chat.SenderAssistant {
			role = "assistant"
		}
		turns = append(turns, wireTurn{Role: role, Content: message.Text})
	}

	body, err := sjson.SetBytes([]byte(`{}`), "messages", turns)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	if opts.Temperature != nil {
		if body, err = sjson.SetBytes(body, "temperature", *opts.Temperature); err != nil {
			return nil, fmt.Errorf("encode temperature: %w", err)
		}
	}
	if opts.RepetitionPenalty != nil {
		if body, err = sjson.SetBytes(body, "repetition_penalty", *opts.RepetitionPenalty); err != nil {
			return nil, fmt.Errorf("encode repetition_penalty: %w", err)
		}
	}
	return body, nil
}
