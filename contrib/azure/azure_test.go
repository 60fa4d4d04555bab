package azure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/go-kratos/qaeval"
)

func TestNewModelValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"endpoint", Config{APIKey: "k", Deployment: "d"}, ErrMissingEndpoint},
		{"key", Config{Endpoint: "https://x", Deployment: "d"}, ErrMissingAPIKey},
		{"deployment", Config{Endpoint: "https://x", APIKey: "k"}, ErrMissingDeployment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewModel(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("NewModel() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConvertMessages(t *testing.T) {
	got := convertMessages([]*qaeval.Message{
		qaeval.SystemMessage("rules"),
		qaeval.UserMessage("question"),
		qaeval.AssistantMessage("answer"),
	})
	want := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "rules"},
		{Role: openai.ChatMessageRoleUser, Content: "question"},
		{Role: openai.ChatMessageRoleAssistant, Content: "answer"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestToChatRequest(t *testing.T) {
	m := &chatModel{deployment: "gpt-4o"}
	schema, err := jsonschema.For[struct {
		Score int `json:"score"`
	}](nil)
	if err != nil {
		t.Fatal(err)
	}
	req := m.toChatRequest(&qaeval.ModelRequest{OutputSchema: schema}, qaeval.ModelOptions{
		Temperature:     0.5,
		MaxOutputTokens: 800,
	})
	if req.Model != "gpt-4o" {
		t.Errorf("Model = %q, want deployment name", req.Model)
	}
	if req.Temperature != 0.5 || req.MaxTokens != 800 {
		t.Errorf("options not applied: %+v", req)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("ResponseFormat = %+v, want json_object", req.ResponseFormat)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Paris"},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 1},
		})
	}))
	defer server.Close()

	model, err := NewModel(Config{Endpoint: server.URL, APIKey: "secret", Deployment: "gpt-4o"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := model.Generate(context.Background(), &qaeval.ModelRequest{
		Messages: []*qaeval.Message{qaeval.UserMessage("capital of France?")},
	})
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if got := resp.Message.Text(); got != "Paris" {
		t.Errorf("Text() = %q, want Paris", got)
	}
	if got := resp.Message.Metadata["input_tokens"]; got != "12" {
		t.Errorf("input_tokens = %q, want 12", got)
	}
}
