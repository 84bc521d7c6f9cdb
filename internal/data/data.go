package data

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/infra/feishu"
	"github.com/DevRickLin/support-desk/internal/infra/genai"
)

// Repositories contains all repositories
type Repositories struct {
	Knowledge repo.KnowledgeRepo
	Assist    repo.AssistRepo
	Delivery  repo.DeliveryRepo
	Directory repo.DirectoryRepo
}

// Options configures NewRepositories
type Options struct {
	SeedPath     string
	KnowledgeDSN string
	SuccessRate  float64
	Random       Random // nil for a non-deterministic source

	// Relay agent messages into FeishuChatID instead of simulating delivery
	Feishu       *feishu.Client
	FeishuChatID string
}

// NewRepositories creates all repositories
func NewRepositories(ctx context.Context, genaiClient *genai.Client, opts Options, logger *zap.Logger) (*Repositories, error) {
	seed, err := LoadSeed(opts.SeedPath)
	if err != nil {
		return nil, err
	}
	directory := NewDirectoryRepo(seed)

	items, err := directory.KnowledgeSeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load knowledge seed: %w", err)
	}
	knowledge, err := NewKnowledgeRepo(ctx, opts.KnowledgeDSN, items)
	if err != nil {
		return nil, err
	}

	var delivery repo.DeliveryRepo
	if opts.Feishu != nil && opts.FeishuChatID != "" {
		delivery = NewFeishuDelivery(opts.Feishu, opts.FeishuChatID, logger.Named("feishu"))
	} else {
		delivery = NewSimulatedDelivery(opts.SuccessRate, opts.Random)
	}

	return &Repositories{
		Knowledge: knowledge,
		Assist:    NewAssistRepo(genaiClient, logger.Named("genai")),
		Delivery:  delivery,
		Directory: directory,
	}, nil
}

// Close releases the repositories' resources
func (r *Repositories) Close() error {
	return r.Knowledge.Close()
}
