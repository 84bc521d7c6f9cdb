package data

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/infra/feishu"
)

// ErrDeliveryFailed is returned by the simulated transport on a lost message
var ErrDeliveryFailed = errors.New("simulated network failure")

// DefaultSuccessRate is the probability that a simulated delivery succeeds
const DefaultSuccessRate = 0.95

// Random is the source of randomness for simulated delivery
type Random interface {
	Float64() float64
}

// FixedRandom always returns the same value. 0 always delivers, 1 always fails.
type FixedRandom float64

// Float64 returns the fixed value
func (f FixedRandom) Float64() float64 { return float64(f) }

// simulatedDelivery decides the outcome of a send with a weighted coin
type simulatedDelivery struct {
	mu   sync.Mutex
	rng  Random
	rate float64
}

// NewSimulatedDelivery creates a transport that succeeds with probability rate.
// A nil rng uses a non-deterministic generator.
func NewSimulatedDelivery(rate float64, rng Random) repo.DeliveryRepo {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if rate < 0 || rate > 1 {
		rate = DefaultSuccessRate
	}
	return &simulatedDelivery{rng: rng, rate: rate}
}

// Deliver draws the outcome of one send
func (d *simulatedDelivery) Deliver(ctx context.Context, conversationID string, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	roll := d.rng.Float64()
	d.mu.Unlock()

	if roll < d.rate {
		return nil
	}
	return ErrDeliveryFailed
}

// feishuDelivery relays agent messages into a Feishu chat
type feishuDelivery struct {
	client *feishu.Client
	chatID string
	logger *zap.Logger
}

// NewFeishuDelivery creates a transport that posts every agent message to chatID
func NewFeishuDelivery(client *feishu.Client, chatID string, logger *zap.Logger) repo.DeliveryRepo {
	return &feishuDelivery{client: client, chatID: chatID, logger: logger}
}

// Deliver posts the message text, prefixed with the conversation ID
func (d *feishuDelivery) Deliver(ctx context.Context, conversationID string, msg domain.Message) error {
	text := fmt.Sprintf("[%s] %s", conversationID, msg.Content)
	feishuMsgID, err := d.client.SendText(ctx, d.chatID, text)
	if err != nil {
		return fmt.Errorf("deliver to feishu: %w", err)
	}
	d.logger.Debug("message relayed to feishu",
		zap.String("conversation", conversationID),
		zap.String("message", msg.ID),
		zap.String("feishu_message", feishuMsgID))
	return nil
}

// CheckFeishuChat verifies that the relay chat is reachable
func CheckFeishuChat(ctx context.Context, client *feishu.Client, chatID string) (*feishu.ChatInfo, error) {
	info, err := client.GetChatInfo(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("check feishu chat %s: %w", chatID, err)
	}
	return info, nil
}
