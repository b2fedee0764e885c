package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
	"github.com/intentlab/intent-backend/internal/utils"
)

type ArkMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ArkOptions struct {
	Temperature float64
	StrictJSON  bool
}

// ArkCredential is one authentication strategy for the upstream endpoint.
// The client picks the first configured credential at construction time;
// there is no per-request header branching.
type ArkCredential struct {
	Name string
	Key  string
}

type ArkConfig struct {
	BaseURL     string
	Model       string
	Credentials []ArkCredential
	Timeout     time.Duration
}

type ArkClient interface {
	// Complete issues exactly one chat-completions call and returns the
	// reply content. No internal retries: model calls are expensive and
	// non-idempotent in effect, so retry policy stays with the caller.
	Complete(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, opts ArkOptions) (string, error)
	// CompleteJSON is Complete with StrictJSON set, unmarshalling the
	// content into out. A reply that does not parse fails with
	// MalformedReplyError carrying the raw text.
	CompleteJSON(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, temperature float64, out any) error
}

type arkClient struct {
	log        *logger.Logger
	cfg        ArkConfig
	credential ArkCredential
	httpClient *http.Client
	callLogs   repos.ArkCallLogRepo
}

func NewArkClient(cfg ArkConfig, log *logger.Logger, callLogs repos.ArkCallLogRepo) (ArkClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ark base url required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ark model id required")
	}
	var credential ArkCredential
	for _, c := range cfg.Credentials {
		if strings.TrimSpace(c.Key) != "" {
			credential = c
			break
		}
	}
	if credential.Key == "" {
		return nil, fmt.Errorf("no ark credential configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &arkClient{
		log:        log.With("service", "ArkClient"),
		cfg:        cfg,
		credential: credential,
		httpClient: &http.Client{Timeout: timeout},
		callLogs:   callLogs,
	}, nil
}

// NewArkClientFromEnv reads the gateway configuration once at startup.
// Credential priority: ARK_API_KEY, then ARK_ACCESS_KEY.
func NewArkClientFromEnv(log *logger.Logger, callLogs repos.ArkCallLogRepo) (ArkClient, error) {
	cfg := ArkConfig{
		BaseURL: utils.GetEnv("ARK_API_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3", log),
		Model:   os.Getenv("ARK_MODEL_ID"),
		Credentials: []ArkCredential{
			{Name: "api_key", Key: os.Getenv("ARK_API_KEY")},
			{Name: "access_key", Key: os.Getenv("ARK_ACCESS_KEY")},
		},
		Timeout: time.Duration(utils.GetEnvAsInt("ARK_TIMEOUT_SECONDS", 180, log)) * time.Second,
	}
	return NewArkClient(cfg, log, callLogs)
}

type arkChatRequest struct {
	Model          string            `json:"model"`
	Messages       []ArkMessage      `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat *arkFormatOption  `json:"response_format,omitempty"`
}

type arkFormatOption struct {
	Type string `json:"type"`
}

type arkChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *arkClient) Complete(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, opts ArkOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages required")
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	reqBody := arkChatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	}
	if opts.StrictJSON {
		reqBody.ResponseFormat = &arkFormatOption{Type: "json_object"}
	}

	content, usage, err := c.doOnce(ctx, reqBody)
	c.appendCallLog(ctx, callType, intentID, messages, content, usage, err)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *arkClient) CompleteJSON(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, temperature float64, out any) error {
	content, err := c.Complete(ctx, callType, intentID, messages, ArkOptions{Temperature: temperature, StrictJSON: true})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return &MalformedReplyError{Raw: content, Err: err}
	}
	return nil
}

func (c *arkClient) doOnce(ctx context.Context, body arkChatRequest) (string, json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", nil, &GatewayError{Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", &buf)
	if err != nil {
		return "", nil, &GatewayError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.credential.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, &GatewayError{Message: err.Error()}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", nil, &GatewayError{StatusCode: resp.StatusCode, Message: readErr.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(raw))
		var parsed arkChatResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return "", nil, &GatewayError{StatusCode: resp.StatusCode, Message: message}
	}

	var parsed arkChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode body: %v", err)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", parsed.Usage, &MalformedReplyError{Raw: string(raw), Err: fmt.Errorf("empty completion content")}
	}
	return parsed.Choices[0].Message.Content, parsed.Usage, nil
}

func (c *arkClient) appendCallLog(ctx context.Context, callType string, intentID *uuid.UUID, messages []ArkMessage, content string, usage json.RawMessage, callErr error) {
	if c.callLogs == nil {
		return
	}
	prompt, _ := json.Marshal(messages)
	row := &types.ArkCallLog{
		ID:       uuid.New(),
		IntentID: intentID,
		CallType: callType,
		Model:    c.cfg.Model,
		Prompt:   string(prompt),
		Response: content,
		Success:  callErr == nil,
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	if len(usage) > 0 {
		row.Usage = datatypes.JSON(usage)
	}
	if _, err := c.callLogs.Create(ctx, nil, []*types.ArkCallLog{row}); err != nil {
		c.log.Warn("Failed to append ark call log", "call_type", callType, "error", err)
	}
}
