package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kratos/qaeval/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_CHAT_DEPLOYMENT",
		"QAEVAL_JUDGE_PROVIDER", "TRACKING_ENDPOINT", "PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestRootRequiresEndpoint(t *testing.T) {
	clearEnv(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingEndpoint)
}

func TestRunMissingDataFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "key")
	t.Setenv("AZURE_OPENAI_CHAT_DEPLOYMENT", "gpt-4o")

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.jsonl")
	responses := filepath.Join(dir, "responses.jsonl")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--data", missing, "--responses", responses})

	require.Error(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Data file not found: "+missing)
	assert.NoFileExists(t, responses)
}

func TestFlagsOverrideConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "key")
	t.Setenv("AZURE_OPENAI_CHAT_DEPLOYMENT", "gpt-4o")
	t.Setenv("PREFIX", "from-env")

	a := &app{}
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--prefix", "from-flag", "--concurrency", "8"}))
	require.NoError(t, a.setup(cmd))
	assert.Equal(t, "from-flag", a.cfg.Prefix)
	assert.Equal(t, 8, a.cfg.Concurrency)
}
