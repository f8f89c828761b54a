package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStoreURL_FlagPrecedence(t *testing.T) {
	t.Setenv("METAMIGRATE_STORE_URL", "https://env.example.org")

	result := ResolveStoreURL(ResolveStoreURLOptions{
		FlagValue:   "https://flag.example.org",
		ConfigValue: "https://config.example.org",
	})

	assert.Equal(t, "https://flag.example.org", result.Value)
	assert.Equal(t, SourceFlag, result.Source)
	assert.Equal(t, "https://env.example.org", result.Shadowed[SourceEnv])
	assert.Equal(t, "https://config.example.org", result.Shadowed[SourceConfig])
}

func TestResolveStoreURL_EnvPrecedence(t *testing.T) {
	t.Setenv("METAMIGRATE_STORE_URL", "https://env.example.org")

	result := ResolveStoreURL(ResolveStoreURLOptions{
		FlagValue:   "", // No flag
		ConfigValue: "https://config.example.org",
	})

	assert.Equal(t, "https://env.example.org", result.Value)
	assert.Equal(t, SourceEnv, result.Source)
	assert.Equal(t, "https://config.example.org", result.Shadowed[SourceConfig])
	assert.NotContains(t, result.Shadowed, SourceFlag)
}

func TestResolveStoreURL_ConfigFallback(t *testing.T) {
	t.Setenv("METAMIGRATE_STORE_URL", "")

	result := ResolveStoreURL(ResolveStoreURLOptions{
		FlagValue:   "",
		ConfigValue: "https://config.example.org",
	})

	assert.Equal(t, "https://config.example.org", result.Value)
	assert.Equal(t, SourceConfig, result.Source)
	assert.Empty(t, result.Shadowed)
}

func TestResolveStoreURL_Unset(t *testing.T) {
	t.Setenv("METAMIGRATE_STORE_URL", "")

	result := ResolveStoreURL(ResolveStoreURLOptions{})

	assert.Empty(t, result.Value)
	assert.Empty(t, result.Source)
}

func TestResolveConfigPath_FlagPrecedence(t *testing.T) {
	t.Setenv("METAMIGRATE_CONFIG", "/env/path/config.yaml")

	result, err := ResolveConfigPath(ResolveConfigPathOptions{
		FlagValue: "/flag/path/config.yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, "/flag/path/config.yaml", result.Value)
	assert.Equal(t, SourceFlag, result.Source)
	assert.Equal(t, "/env/path/config.yaml", result.Shadowed[SourceEnv])
	assert.NotEmpty(t, result.Shadowed[SourceDefault])
}

func TestResolveConfigPath_EnvPrecedence(t *testing.T) {
	t.Setenv("METAMIGRATE_CONFIG", "/env/path/config.yaml")

	result, err := ResolveConfigPath(ResolveConfigPathOptions{
		FlagValue: "", // No flag
	})
	require.NoError(t, err)

	assert.Equal(t, "/env/path/config.yaml", result.Value)
	assert.Equal(t, SourceEnv, result.Source)
	assert.NotEmpty(t, result.Shadowed[SourceDefault])
}

func TestResolveConfigPath_Default(t *testing.T) {
	t.Setenv("METAMIGRATE_CONFIG", "")

	result, err := ResolveConfigPath(ResolveConfigPathOptions{
		FlagValue: "",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Value, ".metamigrate")
	assert.Contains(t, result.Value, "config.yaml")
	assert.Equal(t, SourceDefault, result.Source)

	// Only the default path exists; nothing was shadowed.
	_, hasEnv := result.Shadowed[SourceEnv]
	assert.False(t, hasEnv)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "flag", string(SourceFlag))
	assert.Equal(t, "env", string(SourceEnv))
	assert.Equal(t, "config", string(SourceConfig))
	assert.Equal(t, "default", string(SourceDefault))
}
