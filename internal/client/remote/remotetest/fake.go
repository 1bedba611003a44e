// Package remotetest provides an in-memory remote.Service and a settable
// connectivity state for tests. Production code must not import it.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Fake keeps menus, entries and meals in memory and records every call as
// "Method:arg". Err, when set, fails every call; FailOn fails one method.
type Fake struct {
	mu      sync.Mutex
	menus   map[string]*models.Menu
	entries map[string]*models.MenuEntry
	meals   []*models.Meal
	stars   map[string]bool
	seq     int

	calls  []string
	Err    error
	FailOn map[string]error
}

var _ remote.Service = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		menus:   map[string]*models.Menu{},
		entries: map[string]*models.MenuEntry{},
		stars:   map[string]bool{},
		FailOn:  map[string]error{},
	}
}

// SetErr changes the error returned by every call.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Fail makes method return err until cleared with a nil err.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.FailOn, method)
		return
	}
	f.FailOn[method] = err
}

// Calls returns the recorded calls in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(method) && c[:len(method)] == method {
			n++
		}
	}
	return n
}

func (f *Fake) PutMenu(m *models.Menu) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	cp.Normalize()
	f.menus[m.ID] = &cp
}

func (f *Fake) PutEntry(e *models.MenuEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.entries[e.ID] = &cp
}

func (f *Fake) PutMeals(meals ...*models.Meal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meals = append(f.meals, meals...)
}

// Menu returns the stored menu or nil.
func (f *Fake) Menu(id string) *models.Menu {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.menus[id]
}

func (f *Fake) record(method, arg string) error {
	f.calls = append(f.calls, method+":"+arg)
	if f.Err != nil {
		return f.Err
	}
	return f.FailOn[method]
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) CreateMenu(_ context.Context, data models.CreateMenuData) (*models.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateMenu", data.Name); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	id := f.nextID("srv")
	m := data.Menu(id, fmt.Sprintf("short%d", f.seq), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m.EditKey = "edit-" + id
	f.menus[id] = m
	cp := *m
	return &cp, nil
}

func (f *Fake) UpdateMenu(_ context.Context, id string, patch models.UpdateMenuData) (*models.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateMenu", id); err != nil {
		return nil, err
	}
	m, ok := f.menus[id]
	if !ok {
		return nil, fmt.Errorf("menu %s: %w", id, common.ErrNotFound)
	}
	updated := patch.Apply(m, m.UpdatedAt.Add(time.Minute))
	f.menus[id] = updated
	cp := *updated
	return &cp, nil
}

func (f *Fake) DeleteMenu(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteMenu", id); err != nil {
		return err
	}
	delete(f.menus, id)
	for k, e := range f.entries {
		if e.MenuID == id {
			delete(f.entries, k)
		}
	}
	return nil
}

func (f *Fake) GetMenuByID(_ context.Context, id string) (*models.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMenuByID", id); err != nil {
		return nil, err
	}
	m, ok := f.menus[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *Fake) GetMenuByShortID(_ context.Context, shortID string) (*models.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMenuByShortID", shortID); err != nil {
		return nil, err
	}
	for _, m := range f.menus {
		if m.ShortID == shortID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetMenuEntries(_ context.Context, menuID string) ([]*models.MenuEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMenuEntries", menuID); err != nil {
		return nil, err
	}
	out := make([]*models.MenuEntry, 0)
	for _, e := range f.entries {
		if e.MenuID == menuID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].MealType < out[j].MealType
	})
	return out, nil
}

func (f *Fake) UpsertMenuEntry(_ context.Context, in models.EntryInput) (*models.MenuEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpsertMenuEntry", in.MenuID+"/"+in.Date+"/"+string(in.MealType)); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	for _, e := range f.entries {
		if e.Key() == in.Key() {
			e.MealID = in.MealID
			e.Notes = in.Notes
			cp := *e
			return &cp, nil
		}
	}
	e := in.Entry(f.nextID("entry"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.entries[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f *Fake) DeleteMenuEntry(_ context.Context, key models.EntryKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteMenuEntry", key.MenuID+"/"+key.Date+"/"+string(key.MealType)); err != nil {
		return err
	}
	for k, e := range f.entries {
		if e.Key() == key {
			delete(f.entries, k)
		}
	}
	return nil
}

func (f *Fake) GetPresetMeals(_ context.Context) ([]*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetPresetMeals", ""); err != nil {
		return nil, err
	}
	return append([]*models.Meal(nil), f.meals...), nil
}

func (f *Fake) SearchMeals(_ context.Context, query string) ([]*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SearchMeals", query); err != nil {
		return nil, err
	}
	out := models.FilterMeals(f.meals, query)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Fake) CreateMeal(_ context.Context, in models.MealInput) (*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateMeal", in.Name); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m := &models.Meal{
		ID:          f.nextID("meal"),
		Name:        in.Name,
		Description: in.Description,
		FoodItems:   in.FoodItems,
		Tags:        in.Tags,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.meals = append(f.meals, m)
	cp := *m
	return &cp, nil
}

func (f *Fake) UpdateMeal(_ context.Context, id string, in models.MealInput) (*models.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateMeal", id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	for _, m := range f.meals {
		if m.ID == id && !m.IsPreset {
			m.Name, m.Description, m.FoodItems, m.Tags = in.Name, in.Description, in.FoodItems, in.Tags
			cp := *m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("meal %s: %w", id, common.ErrNotFound)
}

func (f *Fake) DeleteMeal(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteMeal", id); err != nil {
		return err
	}
	for i, m := range f.meals {
		if m.ID == id && !m.IsPreset {
			f.meals = append(f.meals[:i], f.meals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("meal %s: %w", id, common.ErrNotFound)
}

func (f *Fake) DiscoverMenus(_ context.Context, filter models.DiscoverFilter, fingerprint string) (*models.DiscoverPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DiscoverMenus", filter.Search); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	var hits []*models.Menu
	for _, m := range f.menus {
		if filter.Matches(m) {
			hits = append(hits, m)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch filter.SortBy {
		case models.SortPopular:
			if a.ViewCount != b.ViewCount {
				return a.ViewCount > b.ViewCount
			}
		case models.SortMostStarred:
			if a.StarCount != b.StarCount {
				return a.StarCount > b.StarCount
			}
		case models.SortName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	page := &models.DiscoverPage{Menus: []models.DiscoveredMenu{}, Total: len(hits)}
	for i := filter.Offset(); i < len(hits) && len(page.Menus) < filter.Limit; i++ {
		cp := *hits[i]
		page.Menus = append(page.Menus, models.DiscoveredMenu{
			Menu:    &cp,
			Starred: f.stars[starKey(cp.ID, fingerprint)],
		})
	}
	page.HasMore = len(page.Menus) == filter.Limit
	return page, nil
}

func (f *Fake) ToggleMenuStar(_ context.Context, menuID, fingerprint string) (models.StarResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ToggleMenuStar", menuID); err != nil {
		return models.StarResult{}, err
	}
	m, ok := f.menus[menuID]
	if !ok {
		return models.StarResult{}, fmt.Errorf("menu %s: %w", menuID, common.ErrNotFound)
	}
	key := starKey(menuID, fingerprint)
	if f.stars[key] {
		delete(f.stars, key)
		m.StarCount--
	} else {
		f.stars[key] = true
		m.StarCount++
	}
	return models.StarResult{Starred: f.stars[key], StarCount: m.StarCount}, nil
}

func (f *Fake) IncrementViewCount(_ context.Context, menuID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("IncrementViewCount", menuID); err != nil {
		return err
	}
	if m, ok := f.menus[menuID]; ok {
		m.ViewCount++
	}
	return nil
}

func starKey(menuID, fingerprint string) string { return menuID + "|" + fingerprint }

// Online is a connectivity stub with a settable state.
type Online struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

func NewOnline(online bool) *Online {
	return &Online{online: online}
}

func (o *Online) IsOnline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

func (o *Online) Subscribe() <-chan bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan bool, 8)
	o.subs = append(o.subs, ch)
	return ch
}

func (o *Online) Set(online bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.online == online {
		return
	}
	o.online = online
	for _, ch := range o.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
