// Package azure provides a model provider backed by Azure OpenAI chat deployments.
package azure

import (
	"context"
	"errors"
	"io"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/go-kratos/qaeval"
)

// DefaultAPIVersion is used when Config.APIVersion is empty.
const DefaultAPIVersion = "2024-02-15-preview"

var (
	// ErrMissingEndpoint is returned when no endpoint is configured.
	ErrMissingEndpoint = errors.New("azure: endpoint is required")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("azure: api key is required")
	// ErrMissingDeployment is returned when no chat deployment is configured.
	ErrMissingDeployment = errors.New("azure: deployment is required")
	// ErrNoChoices is returned when the service answers without a choice.
	ErrNoChoices = errors.New("azure: response has no choices")
)

// Config holds the Azure OpenAI connection settings.
type Config struct {
	// Endpoint has the form https://{resource}.openai.azure.com.
	Endpoint   string
	APIKey     string
	APIVersion string
	// Deployment is the chat deployment name, used as the model.
	Deployment string
}

// chatModel implements qaeval.ModelProvider over a chat deployment.
type chatModel struct {
	deployment string
	client     *openai.Client
}

// NewModel creates an Azure OpenAI model provider.
func NewModel(cfg Config) (qaeval.ModelProvider, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Deployment == "" {
		return nil, ErrMissingDeployment
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	config := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	config.APIVersion = cfg.APIVersion
	return &chatModel{
		deployment: cfg.Deployment,
		client:     openai.NewClientWithConfig(config),
	}, nil
}

// Name returns the deployment name.
func (m *chatModel) Name() string {
	return m.deployment
}

// Generate sends a chat completion request and returns the first choice.
func (m *chatModel) Generate(ctx context.Context, req *qaeval.ModelRequest, opts ...qaeval.ModelOption) (*qaeval.ModelResponse, error) {
	params := m.toChatRequest(req, qaeval.ApplyModelOptions(opts...))
	resp, err := m.client.CreateChatCompletion(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	choice := resp.Choices[0]
	msg := qaeval.AssistantMessage(choice.Message.Content)
	msg.Metadata = map[string]string{
		"finish_reason": string(choice.FinishReason),
		"input_tokens":  strconv.Itoa(resp.Usage.PromptTokens),
		"output_tokens": strconv.Itoa(resp.Usage.CompletionTokens),
	}
	return &qaeval.ModelResponse{Message: msg}, nil
}

// NewStreaming streams content deltas, then yields the accumulated message as completed.
func (m *chatModel) NewStreaming(ctx context.Context, req *qaeval.ModelRequest, opts ...qaeval.ModelOption) qaeval.Sequence[*qaeval.ModelResponse, error] {
	return func(yield func(*qaeval.ModelResponse, error) bool) {
		params := m.toChatRequest(req, qaeval.ApplyModelOptions(opts...))
		params.Stream = true
		stream, err := m.client.CreateChatCompletionStream(ctx, params)
		if err != nil {
			yield(nil, err)
			return
		}
		defer stream.Close()

		var (
			content      string
			finishReason openai.FinishReason
		)
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0]
			if delta.FinishReason != "" {
				finishReason = delta.FinishReason
			}
			if delta.Delta.Content == "" {
				continue
			}
			content += delta.Delta.Content
			partial := qaeval.AssistantMessage(delta.Delta.Content)
			partial.Status = qaeval.StatusInProgress
			if !yield(&qaeval.ModelResponse{Message: partial}, nil) {
				return
			}
		}
		final := qaeval.AssistantMessage(content)
		final.Metadata = map[string]string{"finish_reason": string(finishReason)}
		yield(&qaeval.ModelResponse{Message: final}, nil)
	}
}

func (m *chatModel) toChatRequest(req *qaeval.ModelRequest, opt qaeval.ModelOptions) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = m.deployment
	}
	params := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req.Messages),
	}
	if opt.Temperature > 0 {
		params.Temperature = float32(opt.Temperature)
	}
	if opt.TopP > 0 {
		params.TopP = float32(opt.TopP)
	}
	if opt.MaxOutputTokens > 0 {
		params.MaxTokens = int(opt.MaxOutputTokens)
	}
	if req.OutputSchema != nil {
		// the 2024-02-15 API only understands json_object
		params.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return params
}

func convertMessages(messages []*qaeval.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case qaeval.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case qaeval.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Text()})
	}
	return out
}
