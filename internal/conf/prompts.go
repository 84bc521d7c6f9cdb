package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DevRickLin/support-desk/internal/biz/usecase"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Assist   AssistPrompts  `yaml:"assist"`
	Fallback FallbackConfig `yaml:"fallback"`
	Customer CustomerConfig `yaml:"customer"`
	History  HistoryConfig  `yaml:"history"`

	// Source is the file the prompts were read from, empty for defaults
	Source string `yaml:"-"`
	// LoadError is set when a prompts file existed but could not be used
	LoadError error `yaml:"-"`
}

// AssistPrompts contains the generative API prompts
type AssistPrompts struct {
	SystemPrompt        string `yaml:"system_prompt"`
	SuggestionsTemplate string `yaml:"suggestions_template"`
	FollowupTemplate    string `yaml:"followup_template"`
	SummaryTemplate     string `yaml:"summary_template"`
	SentimentTemplate   string `yaml:"sentiment_template"`
	ToolDescription     string `yaml:"tool_description"`
}

// FallbackConfig contains the local suggestion fallbacks
type FallbackConfig struct {
	Generic           []string `yaml:"generic"`
	KnowledgeTemplate string   `yaml:"knowledge_template"`
}

// CustomerConfig contains the simulated customer
type CustomerConfig struct {
	Reply string `yaml:"reply"`
}

// HistoryConfig contains history truncation settings
type HistoryConfig struct {
	MaxCount int `yaml:"max_count"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/support-desk/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		// Return default config if no file found
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()
	config.Source = loadedPath

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Assist.SystemPrompt == "" {
		c.Assist.SystemPrompt = defaults.Assist.SystemPrompt
	}
	if c.Assist.SuggestionsTemplate == "" {
		c.Assist.SuggestionsTemplate = defaults.Assist.SuggestionsTemplate
	}
	if c.Assist.FollowupTemplate == "" {
		c.Assist.FollowupTemplate = defaults.Assist.FollowupTemplate
	}
	if c.Assist.SummaryTemplate == "" {
		c.Assist.SummaryTemplate = defaults.Assist.SummaryTemplate
	}
	if c.Assist.SentimentTemplate == "" {
		c.Assist.SentimentTemplate = defaults.Assist.SentimentTemplate
	}
	if c.Assist.ToolDescription == "" {
		c.Assist.ToolDescription = defaults.Assist.ToolDescription
	}

	if len(c.Fallback.Generic) == 0 {
		c.Fallback.Generic = defaults.Fallback.Generic
	}
	if c.Fallback.KnowledgeTemplate == "" {
		c.Fallback.KnowledgeTemplate = defaults.Fallback.KnowledgeTemplate
	}

	if c.Customer.Reply == "" {
		c.Customer.Reply = defaults.Customer.Reply
	}

	if c.History.MaxCount == 0 {
		c.History.MaxCount = defaults.History.MaxCount
	}
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	d := usecase.DefaultPromptConfig
	return &PromptsConfig{
		Assist: AssistPrompts{
			SystemPrompt:        d.AssistantSystem,
			SuggestionsTemplate: d.SuggestionsTmpl,
			FollowupTemplate:    d.FollowupTmpl,
			SummaryTemplate:     d.SummaryTmpl,
			SentimentTemplate:   d.SentimentTmpl,
			ToolDescription:     d.ToolDescription,
		},
		Fallback: FallbackConfig{
			Generic:           append([]string(nil), d.GenericFallbacks...),
			KnowledgeTemplate: d.FallbackTmpl,
		},
		Customer: CustomerConfig{
			Reply: d.CustomerReply,
		},
		History: HistoryConfig{
			MaxCount: d.MaxHistoryCount,
		},
	}
}
