package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
)

// AnalyticsUsecase builds the analytics overview
type AnalyticsUsecase struct {
	directory repo.DirectoryRepo
	now       func() time.Time
}

// NewAnalyticsUsecase creates a new analytics usecase
func NewAnalyticsUsecase(directory repo.DirectoryRepo) *AnalyticsUsecase {
	return &AnalyticsUsecase{directory: directory, now: time.Now}
}

// Overview combines the seeded figures with live counts over conversations
func (uc *AnalyticsUsecase) Overview(ctx context.Context, conversations []*domain.Conversation) (*domain.Analytics, error) {
	seed, err := uc.directory.Analytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("get analytics seed: %w", err)
	}

	result := &domain.Analytics{
		Live:        LiveStatsOf(conversations),
		GeneratedAt: uc.now(),
	}
	if seed != nil {
		result.AnalyticsSeed = *seed
	}
	return result, nil
}

// LiveStatsOf counts conversations, unread messages and agent delivery states
func LiveStatsOf(conversations []*domain.Conversation) domain.LiveStats {
	var s domain.LiveStats
	for _, c := range conversations {
		s.Conversations++
		s.Unread += c.UnreadCount
		if c.Priority == domain.PriorityHigh {
			s.HighPriority++
		}
		for i := range c.Messages {
			switch c.Messages[i].CurrentStatus() {
			case domain.StatusSent:
				s.AgentSent++
			case domain.StatusFailed:
				s.AgentFailed++
			case domain.StatusSending:
				s.AgentPending++
			}
		}
	}
	return s
}
