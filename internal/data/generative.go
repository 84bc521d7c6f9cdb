package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/infra/genai"
)

// assistRepo implements the generative API repository
type assistRepo struct {
	client *genai.Client
	logger *zap.Logger
}

// NewAssistRepo creates a generative API repository
func NewAssistRepo(client *genai.Client, logger *zap.Logger) repo.AssistRepo {
	return &assistRepo{client: client, logger: logger}
}

// Generate runs one chat completion and decodes it into a tagged result
func (r *assistRepo) Generate(ctx context.Context, req repo.GenerateRequest) (repo.GenerateResult, error) {
	creq, err := buildCompletionRequest(req)
	if err != nil {
		return repo.GenerateResult{}, err
	}

	msg, err := r.client.Complete(ctx, creq)
	if err != nil {
		return repo.GenerateResult{}, fmt.Errorf("generate %s: %w", req.Purpose, err)
	}

	result := decodeResult(msg, req.Shape)
	r.logger.Debug("generate",
		zap.String("purpose", req.Purpose),
		zap.String("kind", string(result.Kind)),
		zap.Int("tools", len(req.Tools)))
	return result, nil
}

func buildCompletionRequest(req repo.GenerateRequest) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	if rt := req.ToolRoundTrip; rt != nil {
		args, err := json.Marshal(rt.Call.Args)
		if err != nil {
			return openai.ChatCompletionRequest{}, fmt.Errorf("marshal tool args: %w", err)
		}
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: rt.Prompt},
			openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   rt.Call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      rt.Call.Name,
						Arguments: string(args),
					},
				}},
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(rt.Output),
				Name:       rt.Call.Name,
				ToolCallID: rt.Call.ID,
			},
		)
	}

	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	creq := openai.ChatCompletionRequest{Messages: messages}
	for _, t := range req.Tools {
		creq.Tools = append(creq.Tools, toOpenAITool(t))
	}

	if req.ToolRoundTrip != nil && len(creq.Tools) > 0 {
		// The single round trip is over; the answer must be final.
		creq.ToolChoice = "none"
	}
	if req.Shape == repo.ShapeArrayOfStrings {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "suggestions",
				Schema: suggestionsSchema,
				Strict: true,
			},
		}
	}
	return creq, nil
}

var suggestionsSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"suggestions": {
			Type:  jsonschema.Array,
			Items: &jsonschema.Definition{Type: jsonschema.String},
		},
	},
	Required:             []string{"suggestions"},
	AdditionalProperties: false,
}

func toOpenAITool(t repo.ToolDeclaration) openai.Tool {
	props := make(map[string]jsonschema.Definition, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		props[p.Name] = jsonschema.Definition{Type: jsonschema.String, Description: p.Description}
		required = append(required, p.Name)
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: props,
				Required:   required,
			},
		},
	}
}

// decodeResult maps a model message onto the tagged variant.
// Anything that cannot be decoded as requested comes back as ResultText.
func decodeResult(msg openai.ChatCompletionMessage, shape repo.ResponseShape) repo.GenerateResult {
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		if call, ok := decodeToolCall(tc.ID, tc.Function.Name, tc.Function.Arguments); ok {
			return repo.GenerateResult{Kind: repo.ResultToolCall, ToolCall: call}
		}
		return repo.GenerateResult{Kind: repo.ResultText, Text: msg.Content}
	}
	if msg.FunctionCall != nil {
		if call, ok := decodeToolCall("", msg.FunctionCall.Name, msg.FunctionCall.Arguments); ok {
			return repo.GenerateResult{Kind: repo.ResultToolCall, ToolCall: call}
		}
		return repo.GenerateResult{Kind: repo.ResultText, Text: msg.Content}
	}

	if shape == repo.ShapeArrayOfStrings {
		if items, ok := decodeStringArray(msg.Content); ok {
			return repo.GenerateResult{Kind: repo.ResultStructured, Items: items}
		}
	}
	return repo.GenerateResult{Kind: repo.ResultText, Text: msg.Content}
}

func decodeToolCall(id, name, arguments string) (*repo.ToolCall, bool) {
	if name == "" {
		return nil, false
	}

	args := make(map[string]string)
	if strings.TrimSpace(arguments) != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
			return nil, false
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				args[k] = s
			} else {
				args[k] = fmt.Sprint(v)
			}
		}
	}
	return &repo.ToolCall{ID: id, Name: name, Args: args}, true
}

// decodeStringArray accepts a JSON array of strings, or an object holding
// one under "suggestions" or "replies", optionally inside a code fence.
func decodeStringArray(content string) ([]string, bool) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, false
	}

	var items []string
	if err := json.Unmarshal([]byte(content), &items); err == nil {
		return items, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, false
	}
	for _, key := range []string{"suggestions", "replies"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, true
		}
	}
	return nil, false
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
