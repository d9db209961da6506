package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageJSON   = "json"
	StorageMemory = "memory"
	StorageMySQL  = "mysql"
)

// LLM providers
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Inbox sources
const (
	InboxFile  = "file"
	InboxIMAP  = "imap"
	InboxGmail = "gmail"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Inbox    InboxConfig    `mapstructure:"inbox"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig selects the record store and its document paths
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	InboxPath     string `mapstructure:"inbox_path"`
	PromptsPath   string `mapstructure:"prompts_path"`
	ProcessedPath string `mapstructure:"processed_path"`
	DraftsPath    string `mapstructure:"drafts_path"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LLMConfig holds generative backend configuration
type LLMConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Temperature   float64       `mapstructure:"temperature"`
}

// InboxConfig holds inbox ingestion configuration
type InboxConfig struct {
	Source              string `mapstructure:"source"`
	SyncIntervalMinutes int    `mapstructure:"sync_interval_minutes"`
	AutoProcess         bool   `mapstructure:"auto_process"`
}

// GmailConfig holds Gmail API and IMAP configuration
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.backend", StorageJSON)
	v.SetDefault("storage.inbox_path", "data/mock_inbox.json")
	v.SetDefault("storage.prompts_path", "prompts/default_p.json")
	v.SetDefault("storage.processed_path", "data/processed.json")
	v.SetDefault("storage.drafts_path", "data/drafts.json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", ProviderOllama)
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("inbox.source", InboxFile)
	v.SetDefault("inbox.sync_interval_minutes", 5)
	v.SetDefault("inbox.auto_process", false)

	v.SetDefault("gmail.imap_host", "imap.gmail.com")
	v.SetDefault("gmail.imap_port", 993)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("log.level", "LOG_LEVEL")

	// Storage
	v.BindEnv("storage.backend", "STORAGE_BACKEND")
	v.BindEnv("storage.inbox_path", "INBOX_PATH")
	v.BindEnv("storage.prompts_path", "PROMPTS_PATH")
	v.BindEnv("storage.processed_path", "PROCESSED_PATH")
	v.BindEnv("storage.drafts_path", "DRAFTS_PATH")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")

	// LLM
	v.BindEnv("llm.enabled", "LOCAL_LLM")
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.model", "LOCAL_MODEL_NAME")
	v.BindEnv("llm.base_url", "OLLAMA_URL")
	v.BindEnv("llm.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai_base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.timeout", "LLM_TIMEOUT")
	v.BindEnv("llm.max_tokens", "LLM_MAX_TOKENS")
	v.BindEnv("llm.temperature", "LLM_TEMPERATURE")

	// Inbox
	v.BindEnv("inbox.source", "INBOX_SOURCE")
	v.BindEnv("inbox.sync_interval_minutes", "INBOX_SYNC_INTERVAL_MINUTES")
	v.BindEnv("inbox.auto_process", "INBOX_AUTO_PROCESS")

	// Gmail
	v.BindEnv("gmail.client_id", "GMAIL_CLIENT_ID")
	v.BindEnv("gmail.client_secret", "GMAIL_CLIENT_SECRET")
	v.BindEnv("gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	v.BindEnv("gmail.user_email", "GMAIL_USER_EMAIL")
	v.BindEnv("gmail.imap_host", "GMAIL_IMAP_HOST")
	v.BindEnv("gmail.imap_port", "GMAIL_IMAP_PORT")
	v.BindEnv("gmail.imap_user", "GMAIL_IMAP_USER")
	v.BindEnv("gmail.imap_password", "GMAIL_IMAP_PASSWORD")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// HasOAuth reports whether Gmail API credentials are configured
func (c *GmailConfig) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Storage.Backend {
	case StorageJSON:
		if c.Storage.InboxPath == "" || c.Storage.PromptsPath == "" ||
			c.Storage.ProcessedPath == "" || c.Storage.DraftsPath == "" {
			return fmt.Errorf("all document paths are required for the json storage backend")
		}
	case StorageMemory:
		if c.Storage.InboxPath == "" {
			return fmt.Errorf("inbox path is required")
		}
	case StorageMySQL:
		if c.Storage.InboxPath == "" {
			return fmt.Errorf("inbox path is required")
		}
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required for the mysql storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.LLM.Enabled {
		switch c.LLM.Provider {
		case ProviderOllama:
			if c.LLM.BaseURL == "" {
				return fmt.Errorf("ollama base url is required")
			}
		case ProviderOpenAI:
			if c.LLM.APIKey == "" {
				return fmt.Errorf("OpenAI API key is required when using the openai provider")
			}
		default:
			return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm model is required")
		}
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be greater than 0")
	}

	switch c.Inbox.Source {
	case InboxFile:
	case InboxIMAP:
		if c.Gmail.IMAPUser == "" || c.Gmail.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when using the imap inbox source")
		}
	case InboxGmail:
		if !c.Gmail.HasOAuth() {
			return fmt.Errorf("Gmail OAuth2 credentials are required when using the gmail inbox source")
		}
	default:
		return fmt.Errorf("unknown inbox source %q", c.Inbox.Source)
	}
	if c.Inbox.Source != InboxFile && c.Inbox.SyncIntervalMinutes <= 0 {
		return fmt.Errorf("inbox sync interval must be greater than 0")
	}

	return nil
}
