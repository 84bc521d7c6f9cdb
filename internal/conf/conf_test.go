package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DevRickLin/support-desk/internal/biz/usecase"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DELIVERY_DELAY_MS", "")
	t.Setenv("DELIVERY_SUCCESS_RATE", "")
	t.Setenv("CUSTOMER_REPLY_TEXT", "")

	cfg := LoadFromEnv()
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Expected addr %s, got %s", DefaultAddr, cfg.Server.Addr)
	}
	if cfg.Desk.DeliveryDelay != 800*time.Millisecond {
		t.Errorf("Expected 800ms delivery delay, got %v", cfg.Desk.DeliveryDelay)
	}
	if cfg.Desk.SuccessRate != DefaultSuccessRate {
		t.Errorf("Expected success rate %v, got %v", DefaultSuccessRate, cfg.Desk.SuccessRate)
	}
	if cfg.Prompts.LoadError == nil {
		t.Error("Expected load error for an explicit missing prompts file")
	}
	if cfg.ToDeskConfig().CustomerReply != usecase.DefaultPromptConfig.CustomerReply {
		t.Errorf("Expected default customer reply, got %q", cfg.ToDeskConfig().CustomerReply)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_ADDR", "0.0.0.0:8080")
	t.Setenv("DELIVERY_DELAY_MS", "10")
	t.Setenv("REPLY_DELAY_MS", "20")
	t.Setenv("CUSTOMER_REPLY_TEXT", "Thanks!")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")

	cfg := LoadFromEnv()
	if cfg.Desk.DeliveryDelay != 10*time.Millisecond || cfg.Desk.ReplyDelay != 20*time.Millisecond {
		t.Errorf("Unexpected delays: %+v", cfg.Desk)
	}
	if cfg.ToDeskConfig().CustomerReply != "Thanks!" {
		t.Errorf("Expected customer reply override, got %q", cfg.ToDeskConfig().CustomerReply)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://localhost:5173" {
		t.Errorf("Unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.MCP.DeskURL != "http://0.0.0.0:8080" {
		t.Errorf("Unexpected desk URL: %s", cfg.MCP.DeskURL)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server: ServerConfig{Addr: DefaultAddr},
		GenAI:  GenAIConfig{APIKey: "key"},
		Desk:   DeskConfig{SuccessRate: 0.95},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := map[string]func(c *Config){
		"bad rate":      func(c *Config) { c.Desk.SuccessRate = 1.5 },
		"neg delay":     func(c *Config) { c.Desk.ReplyDelay = -time.Second },
		"partial relay": func(c *Config) { c.Feishu.AppID = "cli_x" },
	}
	for name, mutate := range tests {
		c := valid
		mutate(&c)
		err := c.Validate()
		if _, ok := err.(*ConfigError); !ok {
			t.Errorf("%s: expected ConfigError, got %v", name, err)
		}
	}
}

func TestLoadPromptsConfig_FillDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	doc := "customer:\n  reply: Got it, thanks.\nhistory:\n  max_count: 5\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write prompts: %v", err)
	}

	cfg, err := LoadPromptsConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Expected source %s, got %s", path, cfg.Source)
	}

	pc := (&Config{Prompts: cfg}).ToPromptConfig()
	if pc.CustomerReply != "Got it, thanks." || pc.MaxHistoryCount != 5 {
		t.Errorf("Expected overrides, got %q and %d", pc.CustomerReply, pc.MaxHistoryCount)
	}
	if pc.SummaryTmpl != usecase.DefaultPromptConfig.SummaryTmpl {
		t.Error("Expected summary template filled from defaults")
	}
	if len(pc.GenericFallbacks) != 3 {
		t.Errorf("Expected 3 generic fallbacks, got %d", len(pc.GenericFallbacks))
	}
}

func TestLoadPromptsConfig_RepoFile(t *testing.T) {
	cfg, err := LoadPromptsConfig(filepath.Join("..", "..", "configs", "prompts.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Customer.Reply != usecase.DefaultPromptConfig.CustomerReply {
		t.Errorf("Expected shipped reply to match default, got %q", cfg.Customer.Reply)
	}
	for name, tmpl := range map[string]string{
		"suggestions": cfg.Assist.SuggestionsTemplate,
		"followup":    cfg.Assist.FollowupTemplate,
	} {
		if !strings.Contains(tmpl, `{"suggestions": [`) {
			t.Errorf("Expected shipped %s template to ask for JSON suggestions", name)
		}
	}
}

func TestValidate_MissingKeyIsWarning(t *testing.T) {
	c := Config{
		Server: ServerConfig{Addr: DefaultAddr},
		Desk:   DeskConfig{SuccessRate: 0.95},
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Expected missing key to be allowed, got %v", err)
	}
	warnings := c.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "GENAI_API_KEY") {
		t.Errorf("Expected a GENAI_API_KEY warning, got %v", warnings)
	}

	c.GenAI.APIKey = "key"
	if warnings := c.Warnings(); len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
}
