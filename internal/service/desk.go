package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/biz/usecase"
)

// ErrStopped is returned once the event loop has exited
var ErrStopped = errors.New("desk event loop stopped")

// DeskConfig contains the lifecycle timings of the desk
type DeskConfig struct {
	DeliveryDelay time.Duration // Between send and delivery outcome
	ReplyDelay    time.Duration // Between a sent message and the customer's reply
	CustomerReply string        // Content of the simulated customer reply
}

// DefaultDeskConfig contains default desk configuration
var DefaultDeskConfig = DeskConfig{
	DeliveryDelay: 800 * time.Millisecond,
	ReplyDelay:    2 * time.Second,
	CustomerReply: usecase.DefaultPromptConfig.CustomerReply,
}

// DeskService owns the state of the support desk.
// All state is mutated on the event loop goroutine only.
type DeskService struct {
	insightUC  *usecase.InsightUsecase
	customerUC *usecase.CustomerUsecase
	delivery   repo.DeliveryRepo
	clock      Clock
	cfg        DeskConfig
	logger     *zap.Logger

	events  chan func()
	stopped chan struct{}
	loopCtx context.Context

	// Loop-owned state
	tab           domain.DashboardTab
	conversations []*domain.Conversation
	byID          map[string]*domain.Conversation
	activeID      string
	compose       string
	settings      domain.Settings

	insights    domain.Insights
	insightSeq  uint64
	pending     int
	insightRuns int
}

// NewDeskService creates a desk over the given conversations.
// The first conversation starts active.
func NewDeskService(
	conversations []*domain.Conversation,
	insightUC *usecase.InsightUsecase,
	customerUC *usecase.CustomerUsecase,
	delivery repo.DeliveryRepo,
	clock Clock,
	cfg DeskConfig,
	logger *zap.Logger,
) (*DeskService, error) {
	if len(conversations) == 0 {
		return nil, errors.New("desk needs at least one conversation")
	}

	byID := make(map[string]*domain.Conversation, len(conversations))
	for _, c := range conversations {
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate conversation %s", c.ID)
		}
		byID[c.ID] = c
	}

	return &DeskService{
		insightUC:     insightUC,
		customerUC:    customerUC,
		delivery:      delivery,
		clock:         clock,
		cfg:           cfg,
		logger:        logger,
		events:        make(chan func(), 64),
		stopped:       make(chan struct{}),
		tab:           domain.TabInbox,
		conversations: conversations,
		byID:          byID,
		activeID:      conversations[0].ID,
		settings:      domain.DefaultSettings(),
	}, nil
}

// StartEventLoop starts the event loop and the first insight run.
// The loop exits when ctx is done.
func (s *DeskService) StartEventLoop(ctx context.Context) {
	s.loopCtx = ctx
	go s.loop(ctx)
	s.post(s.runInsights)
}

// Done is closed when the event loop has exited
func (s *DeskService) Done() <-chan struct{} {
	return s.stopped
}

func (s *DeskService) loop(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.events:
			fn()
		}
	}
}

// post enqueues fn from any goroutine without waiting for it to run
func (s *DeskService) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.stopped:
	}
}

// do runs fn on the event loop and waits for it
func (s *DeskService) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case s.events <- wrapped:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DeskService) active() *domain.Conversation {
	return s.byID[s.activeID]
}

// Send appends an agent message to the active conversation and schedules its
// delivery. Blank text is rejected with a ValidationError and changes nothing.
func (s *DeskService) Send(ctx context.Context, text string) error {
	var verr error
	if err := s.do(ctx, func() { verr = s.send(text) }); err != nil {
		return err
	}
	return verr
}

// UseSuggestion puts a suggestion into the compose box and sends it
func (s *DeskService) UseSuggestion(ctx context.Context, text string) error {
	var verr error
	err := s.do(ctx, func() {
		s.compose = text
		verr = s.send(text)
	})
	if err != nil {
		return err
	}
	return verr
}

func (s *DeskService) send(text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return &domain.ValidationError{Field: "text", Message: "message is empty"}
	}

	conv := s.active()
	msg := domain.NewMessage(domain.RoleAgent, content, s.clock.Now())
	conv.Append(msg)
	s.compose = ""
	s.runInsights()

	s.logger.Debug("message queued",
		zap.String("conversation", conv.ID),
		zap.String("message", msg.ID))

	convID := conv.ID
	outbound := msg.Clone()
	s.clock.AfterFunc(s.cfg.DeliveryDelay, func() {
		err := s.delivery.Deliver(s.loopCtx, convID, outbound)
		s.post(func() { s.resolveDelivery(convID, outbound.ID, err) })
	})
	return nil
}

func (s *DeskService) resolveDelivery(convID, msgID string, deliveryErr error) {
	conv := s.byID[convID]
	status := domain.StatusSent
	if deliveryErr != nil {
		status = domain.StatusFailed
	}

	if err := conv.UpdateStatus(msgID, status); err != nil {
		s.logger.Warn("status update rejected", zap.String("message", msgID), zap.Error(err))
		return
	}

	if status == domain.StatusFailed {
		s.logger.Info("message delivery failed",
			zap.String("conversation", convID),
			zap.String("message", msgID),
			zap.Error(deliveryErr))
		return
	}

	s.clock.AfterFunc(s.cfg.ReplyDelay, func() {
		s.post(func() { s.appendCustomerReply(convID) })
	})
}

func (s *DeskService) appendCustomerReply(convID string) {
	conv := s.byID[convID]
	conv.Append(domain.NewMessage(domain.RoleUser, s.cfg.CustomerReply, s.clock.Now()))

	if convID == s.activeID {
		s.runInsights()
		return
	}
	conv.UnreadCount++
}

// runInsights starts a new insight invocation for the active conversation.
// It runs after every append to the active conversation and on every switch.
// Updates of earlier invocations are dropped from here on.
func (s *DeskService) runInsights() {
	conv := s.active()

	s.insightSeq++
	seq := s.insightSeq
	convID := conv.ID
	s.pending = len(domain.InsightParts)
	s.insights.Loading = true
	s.insightRuns++

	var opts []usecase.FetchOption
	if !s.settings.AutoSummary {
		opts = append(opts, usecase.SkipSummary())
	}

	updates := s.insightUC.Stream(s.loopCtx, conv.History(), opts...)
	go func() {
		for u := range updates {
			u := u
			s.post(func() { s.applyInsight(seq, convID, u) })
		}
	}()
}

func (s *DeskService) applyInsight(seq uint64, convID string, u domain.InsightUpdate) {
	if seq != s.insightSeq || convID != s.activeID {
		s.logger.Debug("discarding stale insight",
			zap.String("conversation", convID),
			zap.String("part", string(u.Part)))
		return
	}

	u.Apply(&s.insights)
	s.pending--
	s.insights.Loading = s.pending > 0
}

// SelectConversation makes id the active conversation and refreshes insights
func (s *DeskService) SelectConversation(ctx context.Context, id string) error {
	var verr error
	err := s.do(ctx, func() {
		conv, ok := s.byID[id]
		if !ok {
			verr = fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
			return
		}
		if id == s.activeID {
			return
		}

		s.activeID = id
		s.insights = domain.Insights{}
		conv.UnreadCount = 0
		s.runInsights()
	})
	if err != nil {
		return err
	}
	return verr
}

// SetCompose replaces the compose buffer
func (s *DeskService) SetCompose(ctx context.Context, text string) error {
	return s.do(ctx, func() { s.compose = text })
}

// SelectTab switches the dashboard page
func (s *DeskService) SelectTab(ctx context.Context, name string) error {
	tab, err := domain.ParseTab(name)
	if err != nil {
		return err
	}
	return s.do(ctx, func() { s.tab = tab })
}

// UpdateSettings replaces the desk preferences
func (s *DeskService) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return s.do(ctx, func() { s.settings = settings })
}

// Settings returns the desk preferences
func (s *DeskService) Settings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.do(ctx, func() { settings = s.settings })
	return settings, err
}

// DeskView is what the inbox page renders
type DeskView struct {
	Tab          domain.DashboardTab  `json:"tab"`
	Conversation *domain.Conversation `json:"conversation"`
	Customer     *domain.Customer     `json:"customer,omitempty"`
	Compose      string               `json:"compose"`
	Insights     domain.Insights      `json:"insights"`
	Settings     domain.Settings      `json:"settings"`
}

// View returns a snapshot of the current desk state
func (s *DeskService) View(ctx context.Context) (*DeskView, error) {
	var view DeskView
	err := s.do(ctx, func() {
		view = DeskView{
			Tab:          s.tab,
			Conversation: s.active().Clone(),
			Compose:      s.compose,
			Insights:     s.insights.Clone(),
			Settings:     s.settings,
		}
	})
	if err != nil {
		return nil, err
	}

	customer, err := s.customerUC.Get(ctx, view.Conversation.CustomerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	view.Customer = customer
	return &view, nil
}

// ConversationSummary is one row of the inbox list
type ConversationSummary struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Avatar       string          `json:"avatar"`
	LastMessage  string          `json:"last_message"`
	UnreadCount  int             `json:"unread_count"`
	Priority     domain.Priority `json:"priority"`
	StartedAt    time.Time       `json:"started_at"`
	Active       bool            `json:"active"`
}

// Conversations returns the inbox list
func (s *DeskService) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	var result []ConversationSummary
	err := s.do(ctx, func() {
		result = make([]ConversationSummary, 0, len(s.conversations))
		for _, c := range s.conversations {
			result = append(result, ConversationSummary{
				ID:          c.ID,
				CustomerID:  c.CustomerID,
				LastMessage: c.LastMessage,
				UnreadCount: c.UnreadCount,
				Priority:    c.Priority,
				StartedAt:   c.StartedAt,
				Active:      c.ID == s.activeID,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	for i := range result {
		customer, err := s.customerUC.Get(ctx, result[i].CustomerID)
		if err != nil {
			continue
		}
		result[i].CustomerName = customer.Name
		result[i].Avatar = customer.Avatar
	}
	return result, nil
}

// Snapshot returns deep copies of every conversation
func (s *DeskService) Snapshot(ctx context.Context) ([]*domain.Conversation, error) {
	var result []*domain.Conversation
	err := s.do(ctx, func() {
		result = make([]*domain.Conversation, 0, len(s.conversations))
		for _, c := range s.conversations {
			result = append(result, c.Clone())
		}
	})
	return result, err
}

// InsightRuns returns how many insight invocations have started
func (s *DeskService) InsightRuns(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() { n = s.insightRuns })
	return n, err
}
