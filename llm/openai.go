package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/chatlens/prompts"
)

const (
	openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 300 * time.Second

	maxRetries = 3
	baseDelay  = 2 * time.Second
)

// OpenAIProvider implements Provider against the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey       string
	model        string
	temperature  float64
	maxRetries   int
	templatesDir string
	debug        bool

	httpClient *http.Client
	baseURL    string
	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithModel overrides the default model name.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if strings.TrimSpace(model) != "" {
			p.model = model
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) OpenAIOption {
	return func(p *OpenAIProvider) { p.temperature = t }
}

// WithBaseURL points the provider at a different endpoint. Used in tests.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = url }
}

// WithMaxRetries overrides how many times a rate-limited request is retried.
func WithMaxRetries(n int) OpenAIOption {
	return func(p *OpenAIProvider) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithTemplatesDir points prompt lookup at a directory of override files.
func WithTemplatesDir(dir string) OpenAIOption {
	return func(p *OpenAIProvider) { p.templatesDir = dir }
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) OpenAIOption {
	return func(p *OpenAIProvider) { p.debug = debug }
}

// NewOpenAIProvider creates a provider for the given API key.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:      apiKey,
		model:       defaultModel,
		temperature: 0.3,
		maxRetries:  maxRetries,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     openAIChatCompletionsURL,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// openAIRequest defines the structure of the chat completions request.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

// openAIMessage defines a message in the conversation for OpenAI.
type openAIMessage struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// openAIResponse defines the subset of the response payload we consume.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIAPIError `json:"error,omitempty"`
}

// openAIAPIError is the error object OpenAI embeds in failure responses.
type openAIAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (e *openAIAPIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *openAIAPIError) quotaExhausted() bool {
	for _, field := range []string{e.Code, e.Type, e.Message} {
		if strings.Contains(strings.ToLower(field), "insufficient_quota") {
			return true
		}
	}
	return false
}

// Generate sends the prompt to OpenAI and returns the raw model text.
// Rate-limit responses are retried with exponential backoff (2s, 4s, 8s)
// before surfacing a RateLimitError. Quota exhaustion fails immediately
// with a QuotaError. Every other failure becomes a GatewayError.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if p.apiKey == "" {
		return "", &GatewayError{Err: fmt.Errorf("OpenAI API key is not set")}
	}

	var messages []openAIMessage
	if systemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(openAIRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		content, retryable, err := p.doRequest(ctx, payload)
		if err == nil {
			return content, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
		if attempt >= p.maxRetries {
			return "", &RateLimitError{Attempts: attempt + 1, Err: lastErr}
		}
		delay := baseDelay << attempt
		slog.Warn("rate limit hit, backing off", "delay", delay, "attempt", attempt+1)
		if serr := p.sleep(ctx, delay); serr != nil {
			return "", &GatewayError{Err: serr}
		}
	}
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is a retryable rate-limit signal.
func (p *OpenAIProvider) doRequest(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", false, &GatewayError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", false, &GatewayError{Err: fmt.Errorf("call OpenAI: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, &GatewayError{Err: fmt.Errorf("read response: %w", err)}
	}
	if p.debug {
		slog.Debug("openai response", "status", resp.StatusCode, "bytes", len(body))
	}

	var parsed openAIResponse
	if uerr := json.Unmarshal(body, &parsed); uerr != nil && resp.StatusCode == http.StatusOK {
		return "", false, &GatewayError{Err: fmt.Errorf("parse response: %w", uerr)}
	}

	if parsed.Error != nil && parsed.Error.quotaExhausted() {
		return "", false, &QuotaError{Err: parsed.Error}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr := error(fmt.Errorf("HTTP 429"))
		if parsed.Error != nil {
			apiErr = parsed.Error
		}
		return "", true, &GatewayError{Err: apiErr}
	}
	if parsed.Error != nil {
		return "", false, &GatewayError{Err: parsed.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, &GatewayError{Err: fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	if len(parsed.Choices) == 0 {
		return "", false, &GatewayError{Err: fmt.Errorf("no choices in response")}
	}
	return parsed.Choices[0].Message.Content, false, nil
}

// ExtractTasks asks the model to identify client tasks in the given chunk.
// A response that does not parse as a JSON array degrades to an empty
// list rather than an error.
func (p *OpenAIProvider) ExtractTasks(ctx context.Context, messages []MessageRef) ([]TaskDraft, error) {
	systemPrompt, err := prompts.GetPrompt(prompts.KeyExtractTasks, p.templatesDir)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s: %s", msg.ID, msg.Role, msg.Text)
	}
	prompt := fmt.Sprintf("Analyze the dialogue and find every client task:\n\n%s\n\nReturn only the JSON array of tasks, with no extra text.", b.String())

	response, err := p.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		return nil, err
	}

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &drafts); err != nil {
		slog.Debug("task extraction output was not valid JSON, treating as no tasks", "error", err)
		return []TaskDraft{}, nil
	}
	return drafts, nil
}

// completionPayload mirrors the JSON object the completion prompt requests.
// response_message_id may legitimately be null.
type completionPayload struct {
	Completed         bool   `json:"completed"`
	ResponseMessageID *int   `json:"response_message_id"`
	Evidence          string `json:"evidence"`
}

// CheckCompletion asks the model whether the task was fulfilled by any of
// the candidate developer responses. Unparseable output degrades to a
// negative verdict with evidence "could not determine".
func (p *OpenAIProvider) CheckCompletion(ctx context.Context, task TaskInput, responses []MessageRef) (CompletionResult, error) {
	systemPrompt, err := prompts.GetPrompt(prompts.KeyCheckCompletion, p.templatesDir)
	if err != nil {
		return CompletionResult{}, &GatewayError{Err: err}
	}

	var b strings.Builder
	for i, r := range responses {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", r.ID, r.Text)
	}
	prompt := fmt.Sprintf("Client task:\n%s\nContext: %s\n\nDeveloper replies:\n%s\n\nReturn only the JSON verdict object.", task.Description, task.Context, b.String())

	response, err := p.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		return CompletionResult{}, err
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &payload); err != nil {
		slog.Debug("completion verdict was not valid JSON, treating as not completed", "error", err)
		return CompletionResult{Completed: false, Evidence: "could not determine"}, nil
	}

	result := CompletionResult{Completed: payload.Completed, Evidence: payload.Evidence}
	if payload.ResponseMessageID != nil {
		result.ResponseMessageID = *payload.ResponseMessageID
	}
	return result, nil
}

// stripCodeFences removes a surrounding Markdown code fence, if any, so
// fenced JSON payloads still parse.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
