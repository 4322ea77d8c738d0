package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/longkey1/turnchat/internal/chat"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4.1"
)

// ErrMissingToken is returned by NewProvider when no API key is configured.
var ErrMissingToken = errors.New("openai token is not configured")

// ModelInfo represents information about an available model
type ModelInfo struct {
	ID          string // Model identifier (e.g., "gpt-4.1")
	Description string // Human-readable description of the model
	IsDefault   bool   // Whether this is the configured model
}

// Config defines the configuration interface for OpenAI provider
type Config interface {
	GetToken() string
	GetOrganization() string
	GetBaseURL() string
	GetTimeout() time.Duration
}

// Provider implements chat.CompletionProvider on the chat completions API.
// The SDK's own retries are disabled; retrying is left to chat.Invoker.
type Provider struct {
	client openai.Client
}

// NewProvider creates a new OpenAI provider instance.
// A missing token is a construction error, never a per-call one.
func NewProvider(config Config) (*Provider, error) {
	token := config.GetToken()
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}
	if org := config.GetOrganization(); org != "" {
		opts = append(opts, option.WithOrganization(org))
	}
	if baseURL := config.GetBaseURL(); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout := config.GetTimeout(); timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &Provider{client: openai.NewClient(opts...)}, nil
}

// Complete sends the messages to the chat completions API and returns the first choice.
func (p *Provider) Complete(ctx context.Context, messages []chat.Message, params chat.Params) (chat.Message, error) {
	if params.Stream {
		return chat.Message{}, fmt.Errorf("streaming is not supported")
	}

	req := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(params.Model),
		Messages:    toSDKMessages(messages),
		Temperature: openai.Float(params.Temperature),
	}
	if params.MaxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(params.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return chat.Message{}, fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return chat.Message{}, fmt.Errorf("no choices in response (id=%s)", resp.ID)
	}

	choice := resp.Choices[0]
	role := chat.Role(choice.Message.Role)
	if !role.Valid() {
		role = chat.RoleAssistant
	}
	return chat.Message{
		ID:      resp.ID,
		Role:    role,
		Content: choice.Message.Content,
		Raw:     resp.RawJSON(),
	}, nil
}

// ListModels returns the models available to the configured credential,
// sorted by ID in descending order.
func (p *Provider) ListModels(ctx context.Context, defaultModel string) ([]ModelInfo, error) {
	var models []ModelInfo

	iter := p.client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		m := iter.Current()
		description := fmt.Sprintf("Owned by %s", m.OwnedBy)
		if m.Created > 0 {
			description += fmt.Sprintf(", created %s", time.Unix(m.Created, 0).UTC().Format("2006-01-02"))
		}
		models = append(models, ModelInfo{
			ID:          m.ID,
			Description: description,
			IsDefault:   m.ID == defaultModel,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})
	return models, nil
}

func toSDKMessages(msgs []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			out[i] = openai.SystemMessage(m.Content)
		case chat.RoleAssistant:
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}

var _ chat.CompletionProvider = (*Provider)(nil)
