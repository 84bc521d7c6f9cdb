package data

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the demo data set the desk starts with.
// Relative times ("ago") are resolved against the load time.
type Seed struct {
	Customers     []SeedCustomer       `yaml:"customers"`
	Conversations []SeedConversation   `yaml:"conversations"`
	Knowledge     []SeedKnowledge      `yaml:"knowledge"`
	Analytics     domain.AnalyticsSeed `yaml:"analytics"`
}

// SeedCustomer is a customer with a relative last-seen time
type SeedCustomer struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Avatar   string   `yaml:"avatar"`
	Status   string   `yaml:"status"`
	SeenAgo  string   `yaml:"last_seen_ago"`
	Location string   `yaml:"location"`
	Tags     []string `yaml:"tags"`
}

// SeedConversation is a conversation with relative timestamps
type SeedConversation struct {
	ID          string        `yaml:"id"`
	CustomerID  string        `yaml:"customer_id"`
	UnreadCount int           `yaml:"unread_count"`
	Priority    string        `yaml:"priority"`
	StartedAgo  string        `yaml:"started_ago"`
	Messages    []SeedMessage `yaml:"messages"`
}

// SeedMessage is a historical message
type SeedMessage struct {
	ID      string `yaml:"id"`
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
	Ago     string `yaml:"ago"`
	Status  string `yaml:"status"` // Agent messages only, defaults to sent
}

// SeedKnowledge is a knowledge item with a relative update time
type SeedKnowledge struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Category   string   `yaml:"category"`
	Tags       []string `yaml:"tags"`
	UpdatedAgo string   `yaml:"updated_ago"`
}

// LoadSeed reads the seed from path, or the embedded default when path is empty
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed: %w", err)
		}
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a YAML seed
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if len(seed.Conversations) == 0 {
		return nil, fmt.Errorf("seed has no conversations")
	}

	known := make(map[string]bool, len(seed.Customers))
	for _, c := range seed.Customers {
		if _, ok := domain.ParsePresence(c.Status); !ok {
			return nil, fmt.Errorf("customer %s: unknown status %q", c.ID, c.Status)
		}
		if err := checkAgo(c.SeenAgo); err != nil {
			return nil, fmt.Errorf("customer %s: last_seen_ago: %w", c.ID, err)
		}
		known[c.ID] = true
	}
	for _, c := range seed.Conversations {
		if !known[c.CustomerID] {
			return nil, fmt.Errorf("conversation %s: unknown customer %q", c.ID, c.CustomerID)
		}
		if _, ok := domain.ParsePriority(c.Priority); !ok {
			return nil, fmt.Errorf("conversation %s: unknown priority %q", c.ID, c.Priority)
		}
		if err := checkAgo(c.StartedAgo); err != nil {
			return nil, fmt.Errorf("conversation %s: started_ago: %w", c.ID, err)
		}
		if len(c.Messages) == 0 {
			return nil, fmt.Errorf("conversation %s: no messages", c.ID)
		}
		for _, m := range c.Messages {
			if err := checkSeedMessage(m); err != nil {
				return nil, fmt.Errorf("conversation %s: message %s: %w", c.ID, m.ID, err)
			}
		}
	}
	for _, k := range seed.Knowledge {
		if !domain.Category(k.Category).Valid() {
			return nil, fmt.Errorf("knowledge %s: unknown category %q", k.ID, k.Category)
		}
		if err := checkAgo(k.UpdatedAgo); err != nil {
			return nil, fmt.Errorf("knowledge %s: updated_ago: %w", k.ID, err)
		}
	}
	return &seed, nil
}

func checkSeedMessage(m SeedMessage) error {
	role, ok := domain.ParseRole(m.Role)
	if !ok {
		return fmt.Errorf("unknown role %q", m.Role)
	}
	if m.Status != "" {
		if role != domain.RoleAgent {
			return fmt.Errorf("status set on a %s message", role)
		}
		if _, ok := domain.ParseMessageStatus(m.Status); !ok {
			return fmt.Errorf("unknown status %q", m.Status)
		}
	}
	return checkAgo(m.Ago)
}

// checkAgo accepts "" (now) or a non-negative Go duration
func checkAgo(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("negative duration %q", s)
	}
	return nil
}

// ago resolves a relative time already accepted by checkAgo
func ago(now time.Time, s string) time.Time {
	if s == "" {
		return now
	}
	d, _ := time.ParseDuration(s)
	return now.Add(-d)
}

// directoryRepo serves the seed from memory
type directoryRepo struct {
	seed     *Seed
	loadedAt time.Time
}

// NewDirectoryRepo creates a directory repository over a parsed seed
func NewDirectoryRepo(seed *Seed) repo.DirectoryRepo {
	return &directoryRepo{seed: seed, loadedAt: time.Now()}
}

func (r *directoryRepo) toCustomer(c SeedCustomer) *domain.Customer {
	status, _ := domain.ParsePresence(c.Status)
	return &domain.Customer{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Avatar:   c.Avatar,
		Status:   status,
		LastSeen: ago(r.loadedAt, c.SeenAgo),
		Location: c.Location,
		Tags:     append([]string(nil), c.Tags...),
	}
}

// ListCustomers returns every customer in seed order
func (r *directoryRepo) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	result := make([]*domain.Customer, 0, len(r.seed.Customers))
	for _, c := range r.seed.Customers {
		result = append(result, r.toCustomer(c))
	}
	return result, nil
}

// GetCustomer gets a customer by ID
func (r *directoryRepo) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	for _, c := range r.seed.Customers {
		if c.ID == id {
			return r.toCustomer(c), nil
		}
	}
	return nil, nil
}

// Conversations builds fresh conversations from the seed
func (r *directoryRepo) Conversations(ctx context.Context) ([]*domain.Conversation, error) {
	result := make([]*domain.Conversation, 0, len(r.seed.Conversations))
	for _, c := range r.seed.Conversations {
		messages := make([]domain.Message, 0, len(c.Messages))
		for _, m := range c.Messages {
			msg := domain.Message{
				ID:        m.ID,
				Role:      domain.Role(m.Role),
				Content:   m.Content,
				Timestamp: ago(r.loadedAt, m.Ago),
			}
			if msg.IsAgent() {
				status := domain.StatusSent
				if m.Status != "" {
					status = domain.MessageStatus(m.Status)
				}
				msg.Status = &status
			}
			messages = append(messages, msg)
		}

		conv, err := domain.NewConversation(c.ID, c.CustomerID, domain.Priority(c.Priority), ago(r.loadedAt, c.StartedAgo), messages)
		if err != nil {
			return nil, fmt.Errorf("conversation %s: %w", c.ID, err)
		}
		conv.UnreadCount = c.UnreadCount
		result = append(result, conv)
	}
	return result, nil
}

// KnowledgeSeed returns the initial knowledge items
func (r *directoryRepo) KnowledgeSeed(ctx context.Context) ([]*domain.KnowledgeItem, error) {
	result := make([]*domain.KnowledgeItem, 0, len(r.seed.Knowledge))
	for _, k := range r.seed.Knowledge {
		result = append(result, &domain.KnowledgeItem{
			ID:        k.ID,
			Title:     k.Title,
			Content:   k.Content,
			Category:  domain.Category(k.Category),
			Tags:      append([]string(nil), k.Tags...),
			UpdatedAt: ago(r.loadedAt, k.UpdatedAgo),
		})
	}
	return result, nil
}

// Analytics returns the seeded analytics figures
func (r *directoryRepo) Analytics(ctx context.Context) (*domain.AnalyticsSeed, error) {
	a := r.seed.Analytics
	return &a, nil
}
