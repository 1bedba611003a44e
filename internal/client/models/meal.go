package models

import (
	"strings"
	"time"
)

// Meal is a named dish. Preset meals form the shared catalog.
type Meal struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FoodItems   []string  `json:"food_items,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	IsPreset    bool      `json:"is_preset"`
	CreatedAt   time.Time `json:"created_at"`
}

// Matches reports whether query is a case-insensitive substring of the
// name, the description or any tag. An empty query matches everything.
func (m *Meal) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(m.Name), q) ||
		strings.Contains(strings.ToLower(m.Description), q) {
		return true
	}
	for _, t := range m.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// FilterMeals keeps the meals matching query, preserving order.
func FilterMeals(meals []*Meal, query string) []*Meal {
	out := make([]*Meal, 0, len(meals))
	for _, m := range meals {
		if m.Matches(query) {
			out = append(out, m)
		}
	}
	return out
}
