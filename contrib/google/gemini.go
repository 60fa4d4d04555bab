// Package google provides a model provider backed by Gemini, through either
// the Gemini API or Vertex AI.
package google

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"github.com/go-kratos/qaeval"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrMissingCredentials is returned when neither an API key nor a Vertex project is configured.
var ErrMissingCredentials = errors.New("google: api key or project is required")

// Config selects the Gemini backend. An APIKey selects the Gemini API,
// otherwise Vertex AI is used with application default credentials.
type Config struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// Option defines a configuration option for the provider.
type Option func(*Options)

// WithThinkingConfig sets the thinking config for the provider.
func WithThinkingConfig(c *genai.ThinkingConfig) Option {
	return func(o *Options) {
		o.ThinkingConfig = c
	}
}

// WithThinkingBudget limits the tokens a thinking model may spend before
// answering. Zero disables thinking.
func WithThinkingBudget(tokens int32) Option {
	return WithThinkingConfig(&genai.ThinkingConfig{ThinkingBudget: &tokens})
}

// Options holds configuration options for the provider.
type Options struct {
	ThinkingConfig *genai.ThinkingConfig
}

// geminiModel implements qaeval.ModelProvider over genai.
type geminiModel struct {
	model  string
	opts   Options
	client *genai.Client
}

// NewModel creates a new Gemini model provider.
func NewModel(ctx context.Context, cfg Config, opts ...Option) (qaeval.ModelProvider, error) {
	clientConfig, err := newClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	opt := Options{}
	for _, apply := range opts {
		apply(&opt)
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	return &geminiModel{
		model:  cfg.Model,
		opts:   opt,
		client: client,
	}, nil
}

func newClientConfig(cfg Config) (*genai.ClientConfig, error) {
	if cfg.APIKey != "" {
		return &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}, nil
	}
	if cfg.Project == "" {
		return nil, ErrMissingCredentials
	}
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{cloudPlatformScope},
	})
	if err != nil {
		return nil, err
	}
	return &genai.ClientConfig{
		Project:     cfg.Project,
		Location:    cfg.Location,
		Backend:     genai.BackendVertexAI,
		Credentials: creds,
	}, nil
}

// Name returns the name of the model.
func (m *geminiModel) Name() string {
	return m.model
}

func (m *geminiModel) modelName(req *qaeval.ModelRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return m.model
}

// Generate sends a single content generation request.
func (m *geminiModel) Generate(ctx context.Context, req *qaeval.ModelRequest, opts ...qaeval.ModelOption) (*qaeval.ModelResponse, error) {
	system, contents := convertMessages(req.Messages)
	config := m.toGenerateConfig(req, qaeval.ApplyModelOptions(opts...))
	config.SystemInstruction = system
	resp, err := m.client.Models.GenerateContent(ctx, m.modelName(req), contents, config)
	if err != nil {
		return nil, err
	}
	return convertResponse(resp), nil
}

// NewStreaming yields each chunk as it arrives, then the accumulated text as a completed message.
func (m *geminiModel) NewStreaming(ctx context.Context, req *qaeval.ModelRequest, opts ...qaeval.ModelOption) qaeval.Sequence[*qaeval.ModelResponse, error] {
	return func(yield func(*qaeval.ModelResponse, error) bool) {
		system, contents := convertMessages(req.Messages)
		config := m.toGenerateConfig(req, qaeval.ApplyModelOptions(opts...))
		config.SystemInstruction = system
		var (
			text strings.Builder
			last *genai.GenerateContentResponse
		)
		for chunk, err := range m.client.Models.GenerateContentStream(ctx, m.modelName(req), contents, config) {
			if err != nil {
				yield(nil, err)
				return
			}
			last = chunk
			partial := convertResponse(chunk)
			partial.Message.Status = qaeval.StatusInProgress
			text.WriteString(partial.Message.Text())
			if !yield(partial, nil) {
				return
			}
		}
		final := qaeval.AssistantMessage(text.String())
		if last != nil {
			final.Metadata = responseMetadata(last)
		}
		yield(&qaeval.ModelResponse{Message: final}, nil)
	}
}

func (m *geminiModel) toGenerateConfig(req *qaeval.ModelRequest, opt qaeval.ModelOptions) *genai.GenerateContentConfig {
	var config genai.GenerateContentConfig
	if opt.Temperature > 0 {
		temperature := float32(opt.Temperature)
		config.Temperature = &temperature
	}
	if opt.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(opt.MaxOutputTokens)
	}
	if opt.TopP > 0 {
		topP := float32(opt.TopP)
		config.TopP = &topP
	}
	if m.opts.ThinkingConfig != nil {
		config.ThinkingConfig = m.opts.ThinkingConfig
	}
	if req.OutputSchema != nil {
		config.ResponseMIMEType = "application/json"
	}
	return &config
}

// convertMessages splits system messages into the system instruction.
func convertMessages(messages []*qaeval.Message) (*genai.Content, []*genai.Content) {
	var (
		system   *genai.Content
		contents []*genai.Content
	)
	for _, msg := range messages {
		switch msg.Role {
		case qaeval.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(msg.Text()))
		case qaeval.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Text(), genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Text(), genai.RoleUser))
		}
	}
	return system, contents
}

func convertResponse(resp *genai.GenerateContentResponse) *qaeval.ModelResponse {
	msg := qaeval.AssistantMessage(resp.Text())
	msg.Metadata = responseMetadata(resp)
	return &qaeval.ModelResponse{Message: msg}
}

func responseMetadata(resp *genai.GenerateContentResponse) map[string]string {
	md := map[string]string{}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		md["finish_reason"] = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		md["input_tokens"] = strconv.Itoa(int(u.PromptTokenCount))
		md["output_tokens"] = strconv.Itoa(int(u.CandidatesTokenCount))
	}
	return md
}
