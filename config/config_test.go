package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// empty variables count as unset
	t.Setenv("AZURE_OPENAI_API_VERSION", "")
	t.Setenv("QAEVAL_JUDGE_PROVIDER", "")
	t.Setenv("QAEVAL_CONCURRENCY", "")
	t.Setenv("QAEVAL_GEMINI_THINKING_BUDGET", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIVersion, cfg.AOAI.APIVersion)
	assert.Equal(t, ProviderAzure, cfg.Provider)
	assert.Equal(t, "./src", cfg.Paths.Flow)
	assert.Equal(t, "./evaluations/test-dataset.jsonl", cfg.Paths.Data)
	assert.Equal(t, "./responses.jsonl", cfg.Paths.Responses)
	assert.Equal(t, "./qa_flow_quality_eval.json", cfg.Paths.Output)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, -1, cfg.Gemini.ThinkingBudget)
}

func TestLoadThinkingBudget(t *testing.T) {
	t.Setenv("QAEVAL_GEMINI_THINKING_BUDGET", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Gemini.ThinkingBudget)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "secret")
	t.Setenv("AZURE_OPENAI_CHAT_DEPLOYMENT", "gpt-4o")
	t.Setenv("AZURE_SUBSCRIPTION_ID", "sub")
	t.Setenv("AZURE_RESOURCE_GROUP", "rg")
	t.Setenv("AZUREAI_PROJECT_NAME", "proj")
	t.Setenv("PREFIX", "nightly")
	t.Setenv("QAEVAL_JUDGE_PROVIDER", " Azure ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.openai.azure.com", cfg.AOAI.Endpoint)
	assert.Equal(t, "secret", cfg.AOAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.AOAI.ChatDeployment)
	assert.Equal(t, "sub", cfg.SubscriptionID)
	assert.Equal(t, "rg", cfg.ResourceGroup)
	assert.Equal(t, "proj", cfg.WorkspaceName)
	assert.Equal(t, "nightly", cfg.Prefix)
	assert.Equal(t, ProviderAzure, cfg.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	for _, key := range []string{
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_CHAT_DEPLOYMENT",
		"AZUREAI_PROJECT_NAME", "QAEVAL_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "qaeval.yaml")
	content := []byte(`
aoai:
  endpoint: https://file.openai.azure.com
  api_key: from-file
  chat_deployment: gpt-4o-mini
workspace_name: file-project
paths:
  data: ./data.jsonl
concurrency: 2
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.openai.azure.com", cfg.AOAI.Endpoint)
	assert.Equal(t, "from-file", cfg.AOAI.APIKey)
	assert.Equal(t, "file-project", cfg.WorkspaceName)
	assert.Equal(t, "./data.jsonl", cfg.Paths.Data)
	assert.Equal(t, "./responses.jsonl", cfg.Paths.Responses)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "missing endpoint",
			cfg:  Config{Provider: ProviderAzure},
			want: ErrMissingEndpoint,
		},
		{
			name: "missing key",
			cfg:  Config{Provider: ProviderAzure, AOAI: AOAI{Endpoint: "e"}},
			want: ErrMissingAPIKey,
		},
		{
			name: "missing deployment",
			cfg:  Config{Provider: ProviderAzure, AOAI: AOAI{Endpoint: "e", APIKey: "k"}},
			want: ErrMissingDeployment,
		},
		{
			name: "unknown provider",
			cfg:  Config{Provider: "bedrock"},
			want: ErrUnknownProvider,
		},
		{
			name: "gemini",
			cfg:  Config{Provider: ProviderGemini},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExport(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")

	cfg := &Config{AOAI: AOAI{Endpoint: "https://exported", APIKey: "exported-key"}}
	require.NoError(t, cfg.Export())

	assert.Equal(t, "https://exported", os.Getenv("AZURE_OPENAI_ENDPOINT"))
	assert.Equal(t, "exported-key", os.Getenv("AZURE_OPENAI_API_KEY"))
}
