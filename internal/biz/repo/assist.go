package repo

import (
	"context"
	"encoding/json"
)

// AssistRepo is the generative language API interface
type AssistRepo interface {
	// Generate runs one request. Malformed model output is not an error here;
	// it comes back as a ResultText and callers decide.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// ResponseShape constrains the form of the model's answer
type ResponseShape string

const (
	ShapeText           ResponseShape = "text"
	ShapeArrayOfStrings ResponseShape = "array_of_strings"
)

// GenerateRequest represents a single generation request
type GenerateRequest struct {
	Purpose string // Used for logging only
	System  string
	Prompt  string
	Shape   ResponseShape
	Tools   []ToolDeclaration

	// ToolRoundTrip carries the previous tool call and its local result.
	// When set, the request continues that exchange.
	ToolRoundTrip *ToolRoundTrip
}

// ToolDeclaration declares a function the model may ask the caller to run
type ToolDeclaration struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolParam is a required string parameter of a declared tool
type ToolParam struct {
	Name        string
	Description string
}

// ToolRoundTrip is a completed tool invocation fed back into the model
type ToolRoundTrip struct {
	Prompt string // Prompt of the request that produced Call
	Call   ToolCall
	Output json.RawMessage
}

// ResultKind tags the variant held by GenerateResult
type ResultKind string

const (
	ResultText       ResultKind = "text"
	ResultStructured ResultKind = "structured"
	ResultToolCall   ResultKind = "toolCall"
)

// GenerateResult is a tagged variant of the model response
type GenerateResult struct {
	Kind     ResultKind
	Text     string    // ResultText
	Items    []string  // ResultStructured
	ToolCall *ToolCall // ResultToolCall
}

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	ID   string
	Name string
	Args map[string]string
}

// Arg returns the named argument, "" if absent
func (c *ToolCall) Arg(name string) string {
	if c == nil || c.Args == nil {
		return ""
	}
	return c.Args[name]
}
