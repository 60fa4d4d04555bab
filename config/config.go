// Package config loads the endpoint, credential and path settings shared by
// both pipeline stages.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProviderAzure selects Azure OpenAI for the flow model and the judge.
	ProviderAzure = "azure"
	// ProviderGemini selects Gemini for the flow model and the judge.
	ProviderGemini = "gemini"

	// DefaultAPIVersion is the Azure OpenAI API version used when none is configured.
	DefaultAPIVersion = "2024-02-15-preview"
)

var (
	// ErrMissingEndpoint is returned when the Azure OpenAI endpoint is not configured.
	ErrMissingEndpoint = errors.New("config: azure openai endpoint is required")
	// ErrMissingAPIKey is returned when the Azure OpenAI API key is not configured.
	ErrMissingAPIKey = errors.New("config: azure openai api key is required")
	// ErrMissingDeployment is returned when no chat deployment is configured.
	ErrMissingDeployment = errors.New("config: azure openai chat deployment is required")
	// ErrUnknownProvider is returned for an unsupported judge provider.
	ErrUnknownProvider = errors.New("config: unknown judge provider")
)

// AOAI holds the Azure OpenAI connection settings.
type AOAI struct {
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	APIVersion     string `mapstructure:"api_version"`
	ChatDeployment string `mapstructure:"chat_deployment"`
}

// Gemini holds the settings of the optional Gemini backend.
type Gemini struct {
	APIKey   string `mapstructure:"api_key"`
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
	Model    string `mapstructure:"model"`
	// ThinkingBudget caps the thinking tokens of thinking models. Zero turns
	// thinking off, a negative value leaves the model default.
	ThinkingBudget int `mapstructure:"thinking_budget"`
}

// Tracking holds the object store used to record project-scoped runs.
type Tracking struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// Paths holds the files read and written by the pipeline.
type Paths struct {
	Flow      string `mapstructure:"flow"`
	Data      string `mapstructure:"data"`
	Responses string `mapstructure:"responses"`
	Output    string `mapstructure:"output"`
}

// Config is the process configuration. It is read once and not modified afterwards.
type Config struct {
	AOAI           AOAI     `mapstructure:"aoai"`
	SubscriptionID string   `mapstructure:"subscription_id"`
	ResourceGroup  string   `mapstructure:"resource_group"`
	WorkspaceName  string   `mapstructure:"workspace_name"`
	Provider       string   `mapstructure:"provider"`
	Gemini         Gemini   `mapstructure:"gemini"`
	Tracking       Tracking `mapstructure:"tracking"`
	Paths          Paths    `mapstructure:"paths"`
	Prefix         string   `mapstructure:"prefix"`
	Concurrency    int      `mapstructure:"concurrency"`
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("aoai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("aoai.api_key", "AZURE_OPENAI_API_KEY")
	v.BindEnv("aoai.api_version", "AZURE_OPENAI_API_VERSION")
	v.BindEnv("aoai.chat_deployment", "AZURE_OPENAI_CHAT_DEPLOYMENT")
	v.BindEnv("subscription_id", "AZURE_SUBSCRIPTION_ID")
	v.BindEnv("resource_group", "AZURE_RESOURCE_GROUP")
	v.BindEnv("workspace_name", "AZUREAI_PROJECT_NAME")
	v.BindEnv("provider", "QAEVAL_JUDGE_PROVIDER")

	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.project", "GOOGLE_CLOUD_PROJECT")
	v.BindEnv("gemini.location", "GOOGLE_CLOUD_LOCATION")
	v.BindEnv("gemini.model", "QAEVAL_GEMINI_MODEL")
	v.BindEnv("gemini.thinking_budget", "QAEVAL_GEMINI_THINKING_BUDGET")

	v.BindEnv("tracking.endpoint", "TRACKING_ENDPOINT")
	v.BindEnv("tracking.access_key", "TRACKING_ACCESS_KEY")
	v.BindEnv("tracking.secret_key", "TRACKING_SECRET_KEY")
	v.BindEnv("tracking.bucket", "TRACKING_BUCKET")
	v.BindEnv("tracking.secure", "TRACKING_SECURE")

	v.BindEnv("prefix", "PREFIX")
	v.BindEnv("concurrency", "QAEVAL_CONCURRENCY")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aoai.api_version", DefaultAPIVersion)
	v.SetDefault("provider", ProviderAzure)
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.thinking_budget", -1)
	v.SetDefault("tracking.bucket", "evaluations")
	v.SetDefault("tracking.secure", true)
	v.SetDefault("paths.flow", "./src")
	v.SetDefault("paths.data", "./evaluations/test-dataset.jsonl")
	v.SetDefault("paths.responses", "./responses.jsonl")
	v.SetDefault("paths.output", "./qa_flow_quality_eval.json")
	v.SetDefault("concurrency", 4)
}

// New returns a viper instance with the environment bindings and defaults installed.
// A non-empty path is read as the config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	bindEnv(v)
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return v, nil
}

// Load reads the configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return &c, nil
}

// Validate checks that the selected provider is fully configured.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAzure:
		if c.AOAI.Endpoint == "" {
			return ErrMissingEndpoint
		}
		if c.AOAI.APIKey == "" {
			return ErrMissingAPIKey
		}
		if c.AOAI.ChatDeployment == "" {
			return ErrMissingDeployment
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	return nil
}

// Export publishes the Azure OpenAI endpoint and key to the process environment
// so that clients which read them directly see the configured values.
func (c *Config) Export() error {
	if err := os.Setenv("AZURE_OPENAI_ENDPOINT", c.AOAI.Endpoint); err != nil {
		return err
	}
	return os.Setenv("AZURE_OPENAI_API_KEY", c.AOAI.APIKey)
}

// HasTracking reports whether a tracking store is configured.
func (c *Config) HasTracking() bool {
	return c.Tracking.Endpoint != ""
}
