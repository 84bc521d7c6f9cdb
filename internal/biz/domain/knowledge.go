package domain

import (
	"strings"
	"time"
)

// Category is the business category of a knowledge item
type Category string

const (
	CategoryProduct    Category = "product"
	CategoryAfterSales Category = "after_sales"
	CategoryGuide      Category = "guide"
	CategoryCulture    Category = "culture"
	CategoryGeneral    Category = "general"
)

// Categories lists every selectable category, in form order
var Categories = []Category{
	CategoryProduct,
	CategoryAfterSales,
	CategoryGuide,
	CategoryCulture,
	CategoryGeneral,
}

// Valid reports whether c is one of the fixed categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// KnowledgeItem represents an entry of the knowledge base
type KnowledgeItem struct {
	ID        string    `json:"id" yaml:"id"` // Empty until saved
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Category  Category  `json:"category" yaml:"category"`
	Tags      []string  `json:"tags" yaml:"tags"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// IsNew reports whether the item has not been saved yet
func (k *KnowledgeItem) IsNew() bool {
	return k.ID == ""
}

// Normalize trims text fields and drops blank tags
func (k *KnowledgeItem) Normalize() {
	k.Title = strings.TrimSpace(k.Title)
	k.Content = strings.TrimSpace(k.Content)
	if k.Category == "" {
		k.Category = CategoryGeneral
	}
	tags := make([]string, 0, len(k.Tags))
	for _, t := range k.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	k.Tags = tags
}

// Validate checks the fields required to save the item
func (k *KnowledgeItem) Validate() error {
	if k.Title == "" {
		return &ValidationError{Field: "title", Message: "required"}
	}
	if k.Content == "" {
		return &ValidationError{Field: "content", Message: "required"}
	}
	if !k.Category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(k.Category)}
	}
	return nil
}

// Clone returns a copy that does not share the tag slice
func (k KnowledgeItem) Clone() KnowledgeItem {
	k.Tags = append([]string(nil), k.Tags...)
	return k
}
