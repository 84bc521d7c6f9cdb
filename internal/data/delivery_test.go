package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

type sequenceRandom struct {
	values []float64
	next   int
}

func (s *sequenceRandom) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func TestSimulatedDelivery_Rate(t *testing.T) {
	ctx := context.Background()
	msg := domain.NewMessage(domain.RoleAgent, "hello", time.Now())
	rng := &sequenceRandom{values: []float64{0.1, 0.6, 0.49, 0.5}}
	d := NewSimulatedDelivery(0.5, rng)

	var sent int
	for i := 0; i < 4; i++ {
		if d.Deliver(ctx, "conv1", msg) == nil {
			sent++
		}
	}
	if sent != 2 {
		t.Errorf("Expected 2 of 4 deliveries at rate 0.5, got %d", sent)
	}
}

func TestSimulatedDelivery_InvalidRateUsesDefault(t *testing.T) {
	ctx := context.Background()
	msg := domain.NewMessage(domain.RoleAgent, "hello", time.Now())

	// 0.9 is below the default rate, so it must succeed once the rate is clamped
	if err := NewSimulatedDelivery(7, FixedRandom(0.9)).Deliver(ctx, "conv1", msg); err != nil {
		t.Errorf("Expected default rate to apply, got %v", err)
	}
	if err := NewSimulatedDelivery(-1, FixedRandom(0.96)).Deliver(ctx, "conv1", msg); err == nil {
		t.Error("Expected failure above the default rate")
	}
}

func TestNewRepositories_EmbeddedSeed(t *testing.T) {
	ctx := context.Background()
	repos, err := NewRepositories(ctx, nil, Options{
		KnowledgeDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		SuccessRate:  1,
		Random:       FixedRandom(0),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer repos.Close()

	items, err := repos.Knowledge.List(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(items) == 0 {
		t.Error("Expected seeded knowledge items")
	}

	conversations, err := repos.Directory.Conversations(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(conversations) == 0 {
		t.Error("Expected seeded conversations")
	}

	if err := repos.Delivery.Deliver(ctx, conversations[0].ID, domain.NewMessage(domain.RoleAgent, "hi", time.Now())); err != nil {
		t.Errorf("Expected simulated delivery to succeed, got %v", err)
	}
}
