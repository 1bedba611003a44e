// Package models defines the client-side data models of the meal planner:
// menus, menu entries, meals and the operations recorded in the sync queue.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// DaysPerWeek is the length of one planning week.
const DaysPerWeek = 7

// Menu is a multi-week meal plan.
type Menu struct {
	ID string
	// ShortID is the human-shareable identifier used in links.
	ShortID string
	// EditKey is a capability token: whoever holds it may edit the menu.
	EditKey string

	Name        string
	Description string
	CreatedBy   string

	// StartDate is formatted with common.DateLayout; empty when unset.
	StartDate   string
	PeriodWeeks int
	TotalDays   int

	IsDiscoverable bool
	DiscoveryTags  []string
	ViewCount      int
	StarCount      int

	CreatedAt time.Time
	UpdatedAt time.Time

	// LastSynced is an advisory stamp written whenever the row is cached.
	LastSynced time.Time
}

// Normalize derives TotalDays from PeriodWeeks.
func (m *Menu) Normalize() {
	m.TotalDays = m.PeriodWeeks * DaysPerWeek
}

// IsLocal reports whether the menu only exists locally so far.
func (m *Menu) IsLocal() bool {
	return common.IsTempID(m.ID)
}

func (m *Menu) start() (time.Time, error) {
	if m.StartDate == "" {
		return time.Time{}, fmt.Errorf("%w: menu %s has no start date", common.ErrValidation, m.ID)
	}
	return time.Parse(common.DateLayout, m.StartDate)
}

// EndDate returns the last day covered by the menu.
func (m *Menu) EndDate() (string, error) {
	start, err := m.start()
	if err != nil {
		return "", err
	}
	return start.AddDate(0, 0, m.PeriodWeeks*DaysPerWeek-1).Format(common.DateLayout), nil
}

// DateForDay maps a zero-based day index to a calendar date. Indexes
// outside [0, TotalDays) are rejected.
func (m *Menu) DateForDay(dayIndex int) (string, error) {
	if dayIndex < 0 || dayIndex >= m.PeriodWeeks*DaysPerWeek {
		return "", fmt.Errorf("%w: day index %d outside [0, %d)", common.ErrValidation, dayIndex, m.PeriodWeeks*DaysPerWeek)
	}
	start, err := m.start()
	if err != nil {
		return "", err
	}
	return start.AddDate(0, 0, dayIndex).Format(common.DateLayout), nil
}

// DayIndex is the inverse of DateForDay.
func (m *Menu) DayIndex(date string) (int, error) {
	start, err := m.start()
	if err != nil {
		return 0, err
	}
	d, err := time.Parse(common.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("%w: bad date %q", common.ErrValidation, date)
	}
	idx := int(d.Sub(start).Hours() / 24)
	if idx < 0 || idx >= m.PeriodWeeks*DaysPerWeek {
		return 0, fmt.Errorf("%w: date %s outside menu period", common.ErrValidation, date)
	}
	return idx, nil
}

// CreateMenuData is the input of menu creation.
type CreateMenuData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PeriodWeeks int    `json:"period_weeks"`
	StartDate   string `json:"start_date"`
	CreatedBy   string `json:"created_by,omitempty"`
}

func (d CreateMenuData) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: menu name is required", common.ErrValidation)
	}
	if d.PeriodWeeks < 1 || d.PeriodWeeks > 4 {
		return fmt.Errorf("%w: period must be 1 to 4 weeks, got %d", common.ErrValidation, d.PeriodWeeks)
	}
	if _, err := time.Parse(common.DateLayout, d.StartDate); err != nil {
		return fmt.Errorf("%w: bad start date %q", common.ErrValidation, d.StartDate)
	}
	return nil
}

// Menu builds the optimistic local row for this input.
func (d CreateMenuData) Menu(id, shortID string, now time.Time) *Menu {
	m := &Menu{
		ID:          id,
		ShortID:     shortID,
		Name:        d.Name,
		Description: d.Description,
		CreatedBy:   d.CreatedBy,
		StartDate:   d.StartDate,
		PeriodWeeks: d.PeriodWeeks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.Normalize()
	return m
}

// UpdateMenuData is a partial update; nil fields are left unchanged.
type UpdateMenuData struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	IsDiscoverable *bool    `json:"is_discoverable,omitempty"`
	DiscoveryTags  []string `json:"discovery_tags,omitempty"`
}

func (u UpdateMenuData) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.IsDiscoverable == nil && u.DiscoveryTags == nil
}

// Apply returns a copy of m with the patch applied.
func (u UpdateMenuData) Apply(m *Menu, now time.Time) *Menu {
	out := *m
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.IsDiscoverable != nil {
		out.IsDiscoverable = *u.IsDiscoverable
	}
	if u.DiscoveryTags != nil {
		out.DiscoveryTags = append([]string(nil), u.DiscoveryTags...)
	}
	out.UpdatedAt = now
	return &out
}
