package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossdata/hoss/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.Origin)
	assert.Equal(t, "default", cfg.Server.Namespace)
	assert.Equal(t, "HossServer", cfg.Auth.ClientID)
	assert.Equal(t, "name", cfg.Browser.SortField)
	assert.True(t, cfg.Browser.Ascending)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  origin: https://hoss.example.com
  namespace: science
  dataset: imaging
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://hoss.example.com", cfg.Server.Origin)
	assert.Equal(t, "science", cfg.Server.Namespace)
	assert.Equal(t, "imaging", cfg.Server.Dataset)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  namespace: fromfile\n"), 0o600))

	t.Setenv("HOSS_SERVER_NAMESPACE", "fromenv")

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Server.Namespace)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	t.Setenv("HOSS_SERVER_NAMESPACE", "fromenv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("namespace", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--namespace=fromflag", "--log-level=warn"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.Server.Namespace)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadUnsetFlagsDoNotBind(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("namespace", "ignored-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Server.Namespace)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad log level", content: "log:\n  level: loud\n"},
		{name: "bad sort field", content: "browser:\n  sort_field: color\n"},
		{name: "origin not a url", content: "server:\n  origin: not a url\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			_, err := config.Load([]string{path}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	ctx := config.WithContext(context.Background(), cfg)
	got, err := config.FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = config.FromContext(context.Background())
	require.Error(t, err)
}
