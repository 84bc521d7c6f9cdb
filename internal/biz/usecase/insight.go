package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
)

// SearchToolName is the only tool the suggestions request declares
const SearchToolName = "searchKnowledgeBase"

var errNoSuggestions = errors.New("no usable suggestions")

// InsightUsecase derives suggestions, summary and sentiment for a history
type InsightUsecase struct {
	assist    repo.AssistRepo
	knowledge *KnowledgeUsecase
	prompts   *PromptBuilder
	logger    *zap.Logger
}

// NewInsightUsecase creates a new insight usecase
func NewInsightUsecase(
	assist repo.AssistRepo,
	knowledge *KnowledgeUsecase,
	prompts *PromptBuilder,
	logger *zap.Logger,
) *InsightUsecase {
	return &InsightUsecase{
		assist:    assist,
		knowledge: knowledge,
		prompts:   prompts,
		logger:    logger,
	}
}

type fetchOptions struct {
	skipSummary bool
}

// FetchOption tunes a single invocation
type FetchOption func(*fetchOptions)

// SkipSummary resolves the summary part to "" without a remote call
func SkipSummary() FetchOption {
	return func(o *fetchOptions) { o.skipSummary = true }
}

// Stream runs the three parts concurrently and emits exactly one update per
// part, in completion order, then closes the channel. Remote failures are
// resolved with local fallbacks and never surface as errors.
func (uc *InsightUsecase) Stream(ctx context.Context, history []domain.Message, opts ...FetchOption) <-chan domain.InsightUpdate {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	out := make(chan domain.InsightUpdate, len(domain.InsightParts))

	var g errgroup.Group
	g.Go(func() error {
		out <- uc.suggestions(ctx, history)
		return nil
	})
	g.Go(func() error {
		out <- uc.summary(ctx, history, o.skipSummary)
		return nil
	})
	g.Go(func() error {
		out <- uc.sentiment(ctx, history)
		return nil
	})

	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

// FetchInsights waits for all three parts and returns the bundle
func (uc *InsightUsecase) FetchInsights(ctx context.Context, history []domain.Message, opts ...FetchOption) domain.Insights {
	var in domain.Insights
	for update := range uc.Stream(ctx, history, opts...) {
		update.Apply(&in)
	}
	return in
}

func (uc *InsightUsecase) searchTool() repo.ToolDeclaration {
	return repo.ToolDeclaration{
		Name:        SearchToolName,
		Description: uc.prompts.Config().ToolDescription,
		Params: []repo.ToolParam{
			{Name: "query", Description: "Keywords to look up in titles, contents and tags"},
		},
	}
}

func (uc *InsightUsecase) suggestions(ctx context.Context, history []domain.Message) domain.InsightUpdate {
	items, err := uc.requestSuggestions(ctx, history)
	if err != nil {
		uc.logger.Warn("suggestions request failed, using fallback", zap.Error(err))
		return domain.InsightUpdate{
			Part:        domain.PartSuggestions,
			Suggestions: uc.fallbackSuggestions(ctx, history),
			Fallback:    true,
		}
	}
	return domain.InsightUpdate{Part: domain.PartSuggestions, Suggestions: items}
}

func (uc *InsightUsecase) requestSuggestions(ctx context.Context, history []domain.Message) ([]string, error) {
	prompt := uc.prompts.Suggestions(history)
	tool := uc.searchTool()

	res, err := uc.assist.Generate(ctx, repo.GenerateRequest{
		Purpose: "suggestions",
		System:  uc.prompts.Config().AssistantSystem,
		Prompt:  prompt,
		Shape:   repo.ShapeArrayOfStrings,
		Tools:   []repo.ToolDeclaration{tool},
	})
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	if res.Kind == repo.ResultToolCall {
		res, err = uc.runToolCall(ctx, history, prompt, tool, res.ToolCall)
		if err != nil {
			return nil, err
		}
	}

	if res.Kind != repo.ResultStructured {
		return nil, fmt.Errorf("unexpected %s result: %w", res.Kind, errNoSuggestions)
	}

	items := cleanSuggestions(res.Items)
	if len(items) == 0 {
		return nil, errNoSuggestions
	}
	return items, nil
}

// runToolCall executes the requested knowledge search locally and returns
// the follow-up response, scoped to the last customer message.
func (uc *InsightUsecase) runToolCall(
	ctx context.Context,
	history []domain.Message,
	prompt string,
	tool repo.ToolDeclaration,
	call *repo.ToolCall,
) (repo.GenerateResult, error) {
	if call == nil || call.Name != SearchToolName {
		name := ""
		if call != nil {
			name = call.Name
		}
		return repo.GenerateResult{}, fmt.Errorf("unknown tool %q", name)
	}

	query := call.Arg("query")
	matches, err := uc.knowledge.Lookup(ctx, query)
	if err != nil {
		return repo.GenerateResult{}, fmt.Errorf("run %s: %w", SearchToolName, err)
	}
	uc.logger.Debug("knowledge search for tool call",
		zap.String("query", query),
		zap.Int("matches", len(matches)))

	lastUser := ""
	if m := domain.LastUserMessage(history); m != nil {
		lastUser = m.Content
	}

	res, err := uc.assist.Generate(ctx, repo.GenerateRequest{
		Purpose: "suggestions_followup",
		System:  uc.prompts.Config().AssistantSystem,
		Prompt:  uc.prompts.Followup(lastUser, matches),
		Shape:   repo.ShapeArrayOfStrings,
		Tools:   []repo.ToolDeclaration{tool},
		ToolRoundTrip: &repo.ToolRoundTrip{
			Prompt: prompt,
			Call:   *call,
			Output: ToolOutput(matches),
		},
	})
	if err != nil {
		return repo.GenerateResult{}, fmt.Errorf("generate followup: %w", err)
	}
	return res, nil
}

func cleanSuggestions(items []string) []string {
	result := make([]string, 0, domain.MaxSuggestions)
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		result = append(result, s)
		if len(result) == domain.MaxSuggestions {
			break
		}
	}
	return result
}

// fallbackSuggestions references matching knowledge items for the last
// customer message, or returns the generic phrases when nothing matches.
func (uc *InsightUsecase) fallbackSuggestions(ctx context.Context, history []domain.Message) []string {
	generic := append([]string(nil), uc.prompts.Config().GenericFallbacks...)

	last := domain.LastUserMessage(history)
	if last == nil {
		return generic
	}

	matches, err := uc.knowledge.KeywordLookup(ctx, last.Content)
	if err != nil {
		uc.logger.Warn("fallback knowledge lookup failed", zap.Error(err))
		return generic
	}
	if len(matches) == 0 {
		return generic
	}

	result := make([]string, 0, domain.MaxSuggestions)
	for _, m := range matches {
		result = append(result, uc.prompts.FallbackFor(m))
		if len(result) == domain.MaxSuggestions {
			break
		}
	}
	return result
}

func (uc *InsightUsecase) summary(ctx context.Context, history []domain.Message, skip bool) domain.InsightUpdate {
	if skip {
		return domain.InsightUpdate{Part: domain.PartSummary}
	}

	res, err := uc.assist.Generate(ctx, repo.GenerateRequest{
		Purpose: "summary",
		System:  uc.prompts.Config().AssistantSystem,
		Prompt:  uc.prompts.Summary(history),
		Shape:   repo.ShapeText,
	})
	if err == nil && res.Kind != repo.ResultText {
		err = fmt.Errorf("unexpected %s result", res.Kind)
	}
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errors.New("empty summary")
	}
	if err != nil {
		uc.logger.Warn("summary request failed, using placeholder", zap.Error(err))
		return domain.InsightUpdate{Part: domain.PartSummary, Summary: domain.SummaryUnavailable, Fallback: true}
	}
	return domain.InsightUpdate{Part: domain.PartSummary, Summary: strings.TrimSpace(res.Text)}
}

func (uc *InsightUsecase) sentiment(ctx context.Context, history []domain.Message) domain.InsightUpdate {
	res, err := uc.assist.Generate(ctx, repo.GenerateRequest{
		Purpose: "sentiment",
		Prompt:  uc.prompts.Sentiment(domain.LastContent(history)),
		Shape:   repo.ShapeText,
	})
	if err == nil && res.Kind != repo.ResultText {
		err = fmt.Errorf("unexpected %s result", res.Kind)
	}
	if err != nil {
		uc.logger.Warn("sentiment request failed, defaulting to neutral", zap.Error(err))
		return domain.InsightUpdate{Part: domain.PartSentiment, Sentiment: domain.SentimentNeutral, Fallback: true}
	}
	return domain.InsightUpdate{Part: domain.PartSentiment, Sentiment: domain.ParseSentiment(res.Text)}
}
