package conf

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DevRickLin/support-desk/internal/biz/usecase"
	"github.com/DevRickLin/support-desk/internal/service"
)

// Config represents application configuration
type Config struct {
	// HTTP API configuration
	Server ServerConfig

	// Generative API configuration
	GenAI GenAIConfig

	// Feishu relay configuration (optional)
	Feishu FeishuConfig

	// Knowledge store configuration
	Knowledge KnowledgeConfig

	// Message lifecycle configuration
	Desk DeskConfig

	// Seed data configuration
	Seed SeedConfig

	// MCP configuration
	MCP MCPConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// GenAIConfig contains generative API configuration
type GenAIConfig struct {
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint, empty for the default
	Model   string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
	ChatID    string // Chat that receives relayed agent messages
}

// Enabled reports whether agent messages are relayed to Feishu
func (c *FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// KnowledgeConfig contains knowledge store configuration
type KnowledgeConfig struct {
	DBPath string // sqlite file or DSN, empty for in-memory
}

// DeskConfig contains message lifecycle configuration
type DeskConfig struct {
	DeliveryDelay time.Duration
	ReplyDelay    time.Duration
	SuccessRate   float64
}

// SeedConfig contains seed data configuration
type SeedConfig struct {
	Path string // Empty for the embedded seed
}

// MCPConfig contains MCP configuration
type MCPConfig struct {
	DeskURL string // Base URL of the desk API
}

const (
	DefaultAddr        = "127.0.0.1:9876"
	DefaultSuccessRate = 0.95
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}

	origins := []string{"*"}
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		origins = splitList(val)
	}

	deliveryDelay := service.DefaultDeskConfig.DeliveryDelay
	if val := os.Getenv("DELIVERY_DELAY_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			deliveryDelay = time.Duration(parsed) * time.Millisecond
		}
	}

	replyDelay := service.DefaultDeskConfig.ReplyDelay
	if val := os.Getenv("REPLY_DELAY_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			replyDelay = time.Duration(parsed) * time.Millisecond
		}
	}

	successRate := DefaultSuccessRate
	if val := os.Getenv("DELIVERY_SUCCESS_RATE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			successRate = parsed
		}
	}

	deskURL := os.Getenv("DESK_API_URL")
	if deskURL == "" {
		deskURL = "http://" + addr
	}

	// Load prompts from YAML
	promptsConfig, err := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if err != nil {
		promptsConfig = DefaultPromptsConfig()
		promptsConfig.LoadError = err
	}

	// Override customer reply from env if specified
	if val := os.Getenv("CUSTOMER_REPLY_TEXT"); val != "" {
		promptsConfig.Customer.Reply = val
	}

	return &Config{
		Server: ServerConfig{
			Addr:           addr,
			AllowedOrigins: origins,
		},
		GenAI: GenAIConfig{
			APIKey:  firstNonEmpty(os.Getenv("GENAI_API_KEY"), os.Getenv("API_KEY")),
			BaseURL: os.Getenv("GENAI_BASE_URL"),
			Model:   os.Getenv("GENAI_MODEL"),
		},
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
			ChatID:    os.Getenv("FEISHU_CHAT_ID"),
		},
		Knowledge: KnowledgeConfig{
			DBPath: os.Getenv("KNOWLEDGE_DB_PATH"),
		},
		Desk: DeskConfig{
			DeliveryDelay: deliveryDelay,
			ReplyDelay:    replyDelay,
			SuccessRate:   successRate,
		},
		Seed: SeedConfig{
			Path: os.Getenv("SEED_PATH"),
		},
		MCP: MCPConfig{
			DeskURL: strings.TrimRight(deskURL, "/"),
		},
		Prompts: promptsConfig,
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ToDeskConfig converts to the desk lifecycle configuration
func (c *Config) ToDeskConfig() service.DeskConfig {
	return service.DeskConfig{
		DeliveryDelay: c.Desk.DeliveryDelay,
		ReplyDelay:    c.Desk.ReplyDelay,
		CustomerReply: c.ToPromptConfig().CustomerReply,
	}
}

// ToPromptConfig converts to prompt configuration
func (c *Config) ToPromptConfig() usecase.PromptConfig {
	if c.Prompts == nil {
		return usecase.DefaultPromptConfig
	}

	return usecase.PromptConfig{
		AssistantSystem:  c.Prompts.Assist.SystemPrompt,
		SuggestionsTmpl:  c.Prompts.Assist.SuggestionsTemplate,
		FollowupTmpl:     c.Prompts.Assist.FollowupTemplate,
		SummaryTmpl:      c.Prompts.Assist.SummaryTemplate,
		SentimentTmpl:    c.Prompts.Assist.SentimentTemplate,
		ToolDescription:  c.Prompts.Assist.ToolDescription,
		CustomerReply:    c.Prompts.Customer.Reply,
		GenericFallbacks: c.Prompts.Fallback.Generic,
		FallbackTmpl:     c.Prompts.Fallback.KnowledgeTemplate,
		MaxHistoryCount:  c.Prompts.History.MaxCount,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "HTTP_ADDR", Message: "required"}
	}
	if c.Desk.SuccessRate < 0 || c.Desk.SuccessRate > 1 {
		return &ConfigError{Field: "DELIVERY_SUCCESS_RATE", Message: "must be between 0 and 1"}
	}
	if c.Desk.DeliveryDelay < 0 || c.Desk.ReplyDelay < 0 {
		return &ConfigError{Field: "DELIVERY_DELAY_MS/REPLY_DELAY_MS", Message: "must not be negative"}
	}

	f := c.Feishu
	if (f.AppID != "" || f.AppSecret != "" || f.ChatID != "") && !f.Enabled() {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET/FEISHU_CHAT_ID", Message: "must be set together"}
	}
	return nil
}

// Warnings lists settings that degrade the desk without stopping it
func (c *Config) Warnings() []string {
	var warnings []string
	if c.GenAI.APIKey == "" {
		warnings = append(warnings, "GENAI_API_KEY not set, insights will use local fallbacks")
	}
	return warnings
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
