package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
)

// SearchKnowledge returns the items whose title, content or any tag contains
// query, case-insensitively, in stored order. Empty fields never match, so an
// empty query returns every item with at least one non-empty field.
func SearchKnowledge(items []*domain.KnowledgeItem, query string) []*domain.KnowledgeItem {
	q := strings.ToLower(query)
	result := make([]*domain.KnowledgeItem, 0)
	for _, item := range items {
		if itemMatches(item, q) {
			result = append(result, item)
		}
	}
	return result
}

func itemMatches(item *domain.KnowledgeItem, q string) bool {
	if fieldContains(item.Title, q) || fieldContains(item.Content, q) {
		return true
	}
	for _, tag := range item.Tags {
		if fieldContains(tag, q) {
			return true
		}
	}
	return false
}

func fieldContains(field, q string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), q)
}

// KnowledgeUsecase handles knowledge base logic
type KnowledgeUsecase struct {
	repo repo.KnowledgeRepo
	now  func() time.Time
}

// NewKnowledgeUsecase creates a new knowledge usecase
func NewKnowledgeUsecase(knowledgeRepo repo.KnowledgeRepo) *KnowledgeUsecase {
	return &KnowledgeUsecase{repo: knowledgeRepo, now: time.Now}
}

// Lookup runs SearchKnowledge against a snapshot of the store
func (uc *KnowledgeUsecase) Lookup(ctx context.Context, query string) ([]*domain.KnowledgeItem, error) {
	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	return SearchKnowledge(items, query), nil
}

// KeywordLookup finds items related to a free-text customer message.
// The whole text is tried first; otherwise each keyword is matched and items
// are ranked by the number of keywords they contain.
func (uc *KnowledgeUsecase) KeywordLookup(ctx context.Context, text string) ([]*domain.KnowledgeItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}

	if whole := SearchKnowledge(items, text); len(whole) > 0 {
		return whole, nil
	}

	keywords := Keywords(text)
	if len(keywords) == 0 {
		return nil, nil
	}

	type hit struct {
		item  *domain.KnowledgeItem
		count int
	}
	var hits []hit
	for _, item := range items {
		count := 0
		for _, kw := range keywords {
			if itemMatches(item, kw) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, hit{item: item, count: count})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].count > hits[j].count
	})

	result := make([]*domain.KnowledgeItem, len(hits))
	for i, h := range hits {
		result[i] = h.item
	}
	return result, nil
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "your": true, "all": true, "any": true, "can": true, "had": true,
	"has": true, "have": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "his": true, "how": true, "its": true, "may": true, "who": true,
	"did": true, "does": true, "get": true, "this": true, "that": true, "with": true,
	"what": true, "when": true, "where": true, "which": true, "will": true,
	"would": true, "could": true, "should": true, "there": true, "their": true,
	"they": true, "from": true, "about": true, "please": true, "thanks": true,
	"thank": true, "hello": true,
}

// Keywords splits text into lower-cased search keywords: runs of letters and
// digits of at least three runes, stop words removed, duplicates dropped.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// Browse filters the store the way the knowledge page does:
// title, content or category contains the term.
func (uc *KnowledgeUsecase) Browse(ctx context.Context, term string) ([]*domain.KnowledgeItem, error) {
	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}

	t := strings.ToLower(strings.TrimSpace(term))
	result := make([]*domain.KnowledgeItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), t) ||
			strings.Contains(strings.ToLower(item.Content), t) ||
			strings.Contains(strings.ToLower(string(item.Category)), t) {
			result = append(result, item)
		}
	}
	return result, nil
}

// Save creates the item when its ID is empty and updates it otherwise
func (uc *KnowledgeUsecase) Save(ctx context.Context, item domain.KnowledgeItem) (*domain.KnowledgeItem, error) {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.UpdatedAt = uc.now()

	if item.IsNew() {
		item.ID = newKnowledgeID()
		if err := uc.repo.Create(ctx, &item); err != nil {
			return nil, fmt.Errorf("create knowledge: %w", err)
		}
		return &item, nil
	}

	ok, err := uc.repo.Update(ctx, &item)
	if err != nil {
		return nil, fmt.Errorf("update knowledge: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("knowledge %s: %w", item.ID, domain.ErrNotFound)
	}
	return &item, nil
}

func newKnowledgeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "k" + uuid.NewString()
	}
	return "k" + id.String()
}

// Delete removes an item
func (uc *KnowledgeUsecase) Delete(ctx context.Context, id string) error {
	ok, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete knowledge: %w", err)
	}
	if !ok {
		return fmt.Errorf("knowledge %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Get returns one item
func (uc *KnowledgeUsecase) Get(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	item, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get knowledge: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("knowledge %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// List returns every item in stored order
func (uc *KnowledgeUsecase) List(ctx context.Context) ([]*domain.KnowledgeItem, error) {
	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	return items, nil
}
