package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8000"},
		Storage: StorageConfig{
			Backend:       StorageJSON,
			InboxPath:     "data/mock_inbox.json",
			PromptsPath:   "prompts/default_p.json",
			ProcessedPath: "data/processed.json",
			DraftsPath:    "data/drafts.json",
		},
		LLM:   LLMConfig{Provider: ProviderOllama, MaxTokens: 256},
		Inbox: InboxConfig{Source: InboxFile},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	invalid := validConfig()
	invalid.Server.Port = ""
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Storage.Backend = "s3"
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Storage.Backend = StorageMySQL
	assert.Error(t, invalid.Validate())
	invalid.Database = DatabaseConfig{Host: "localhost", User: "agent", DBName: "agent"}
	assert.NoError(t, invalid.Validate())
}

func TestConfigValidationLLM(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Enabled = true
	cfg.LLM.Provider = ProviderOpenAI
	cfg.LLM.Model = "gpt-4o-mini"
	assert.Error(t, cfg.Validate())

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "transformers"
	assert.Error(t, cfg.Validate())

	// A disabled backend is not validated
	cfg.LLM.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidationInbox(t *testing.T) {
	cfg := validConfig()
	cfg.Inbox.Source = InboxIMAP
	cfg.Inbox.SyncIntervalMinutes = 5
	assert.Error(t, cfg.Validate())

	cfg.Gmail.IMAPUser = "me@example.com"
	cfg.Gmail.IMAPPassword = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Inbox.SyncIntervalMinutes = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Inbox.Source = InboxGmail
	cfg.Inbox.SyncIntervalMinutes = 5
	assert.Error(t, cfg.Validate())
	cfg.Gmail = GmailConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=UTC"
	assert.Equal(t, expected, cfg.GetDSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, StorageJSON, cfg.Storage.Backend)
	assert.Equal(t, "data/drafts.json", cfg.Storage.DraftsPath)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, InboxFile, cfg.Inbox.Source)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Empty(t, cfg.LLM.OpenAIBaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("LOCAL_LLM", "1")
	t.Setenv("LOCAL_MODEL_NAME", "phi3")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("DRAFTS_PATH", "/tmp/drafts.json")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "phi3", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "/tmp/drafts.json", cfg.Storage.DraftsPath)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.OpenAIBaseURL)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
}
