package biz

import (
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Knowledge *usecase.KnowledgeUsecase
	Insight   *usecase.InsightUsecase
	Customer  *usecase.CustomerUsecase
	Analytics *usecase.AnalyticsUsecase
}

// NewUsecases wires the usecases over the given repositories
func NewUsecases(
	knowledgeRepo repo.KnowledgeRepo,
	assistRepo repo.AssistRepo,
	directoryRepo repo.DirectoryRepo,
	prompts usecase.PromptConfig,
	logger *zap.Logger,
) *Usecases {
	knowledgeUC := usecase.NewKnowledgeUsecase(knowledgeRepo)
	return &Usecases{
		Knowledge: knowledgeUC,
		Insight:   usecase.NewInsightUsecase(assistRepo, knowledgeUC, usecase.NewPromptBuilder(prompts), logger.Named("insight")),
		Customer:  usecase.NewCustomerUsecase(directoryRepo),
		Analytics: usecase.NewAnalyticsUsecase(directoryRepo),
	}
}
