package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// MealType is the slot of a day a meal is planned for.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

// MealTypes lists the slots in day order.
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner:
		return true
	}
	return false
}

// ParseMealType accepts the names case-insensitively.
func ParseMealType(s string) (MealType, error) {
	t := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown meal type %q", common.ErrValidation, s)
	}
	return t, nil
}

// MenuEntry assigns one meal to one (menu, date, meal type) slot.
type MenuEntry struct {
	ID        string
	MenuID    string
	MealID    string
	Date      string
	MealType  MealType
	Notes     string
	CreatedAt time.Time

	// Meal is the embedded meal when the remote service returned it.
	Meal *Meal
}

// Key is the natural key of the entry.
func (e *MenuEntry) Key() EntryKey {
	return EntryKey{MenuID: e.MenuID, Date: e.Date, MealType: e.MealType}
}

// EntryKey is the (menu_id, date, meal_type) triple; at most one entry
// exists per key.
type EntryKey struct {
	MenuID   string   `json:"menu_id"`
	Date     string   `json:"date"`
	MealType MealType `json:"meal_type"`
}

func (k EntryKey) Validate() error {
	if k.MenuID == "" {
		return fmt.Errorf("%w: menu id is required", common.ErrValidation)
	}
	if _, err := time.Parse(common.DateLayout, k.Date); err != nil {
		return fmt.Errorf("%w: bad date %q", common.ErrValidation, k.Date)
	}
	if !k.MealType.Valid() {
		return fmt.Errorf("%w: unknown meal type %q", common.ErrValidation, k.MealType)
	}
	return nil
}

// EntryInput is the payload of an entry upsert.
type EntryInput struct {
	MenuID   string   `json:"menu_id"`
	MealID   string   `json:"meal_id,omitempty"`
	Date     string   `json:"date"`
	MealType MealType `json:"meal_type"`
	Notes    string   `json:"notes,omitempty"`
}

func (in EntryInput) Key() EntryKey {
	return EntryKey{MenuID: in.MenuID, Date: in.Date, MealType: in.MealType}
}

func (in EntryInput) Validate() error {
	if in.MealID == "" {
		return fmt.Errorf("%w: meal id is required", common.ErrValidation)
	}
	return in.Key().Validate()
}

// Entry builds the optimistic local row for this input.
func (in EntryInput) Entry(id string, now time.Time) *MenuEntry {
	return &MenuEntry{
		ID:        id,
		MenuID:    in.MenuID,
		MealID:    in.MealID,
		Date:      in.Date,
		MealType:  in.MealType,
		Notes:     in.Notes,
		CreatedAt: now,
	}
}
