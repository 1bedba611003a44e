package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// DiscoverSort orders the public menu listing.
type DiscoverSort string

const (
	SortNewest      DiscoverSort = "newest"
	SortPopular     DiscoverSort = "popular"
	SortMostStarred DiscoverSort = "most_starred"
	SortName        DiscoverSort = "name"
)

// DefaultPageSize is the page length of the discover listing.
const DefaultPageSize = 20

// DiscoverFilter narrows the listing of discoverable menus. Zero values
// mean no restriction; Page starts at 1.
type DiscoverFilter struct {
	Search      string
	Tags        []string
	PeriodWeeks []int
	SortBy      DiscoverSort
	Page        int
	Limit       int
}

// Normalize fills in the first page, the default page size and the
// default order.
func (f DiscoverFilter) Normalize() DiscoverFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.SortBy == "" {
		f.SortBy = SortNewest
	}
	return f
}

func (f DiscoverFilter) Validate() error {
	switch f.SortBy {
	case "", SortNewest, SortPopular, SortMostStarred, SortName:
	default:
		return fmt.Errorf("%w: unknown sort %q", common.ErrValidation, f.SortBy)
	}
	for _, w := range f.PeriodWeeks {
		if w < 1 || w > 4 {
			return fmt.Errorf("%w: period must be 1 to 4 weeks, got %d", common.ErrValidation, w)
		}
	}
	return nil
}

// Offset is the number of rows before the requested page.
func (f DiscoverFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// DiscoveredMenu is a public menu as seen by one client.
type DiscoveredMenu struct {
	Menu    *Menu
	Starred bool
}

// DiscoverPage is one page of the public listing.
type DiscoverPage struct {
	Menus   []DiscoveredMenu
	Total   int
	HasMore bool
}

// StarResult is the state of a menu after a star toggle.
type StarResult struct {
	Starred   bool
	StarCount int
}

// MealInput creates or replaces a user's own meal.
type MealInput struct {
	Name        string
	Description string
	FoodItems   []string
	Tags        []string
}

func (in MealInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: meal name is required", common.ErrValidation)
	}
	return nil
}

// Matches reports whether a menu belongs in the listing described by f.
// Only discoverable, named menus are listed.
func (f DiscoverFilter) Matches(m *Menu) bool {
	if m == nil || !m.IsDiscoverable || strings.TrimSpace(m.Name) == "" {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Description), q) {
			return false
		}
	}
	if len(f.Tags) > 0 && !overlaps(f.Tags, m.DiscoveryTags) {
		return false
	}
	if len(f.PeriodWeeks) > 0 {
		found := false
		for _, w := range f.PeriodWeeks {
			if w == m.PeriodWeeks {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
