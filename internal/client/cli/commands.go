package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/services"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

var timeNow = time.Now

var errNoMenu = errors.New("no menu selected, use 'show <short_id>' first")

// settle turns a queued write into a notice; other errors pass through.
func (a *App) settle(err error) error {
	if services.IsPending(err) {
		fmt.Fprintln(a.out, "Saved locally, will sync when back online.")
		return nil
	}
	return err
}

func (a *App) selected() (*models.Menu, error) {
	if a.current == nil {
		return nil, errNoMenu
	}
	return a.current, nil
}

func (a *App) confirm(prompt string) (bool, error) {
	answer, err := GetSimpleText(a.reader, prompt+" (yes/no)", a.out)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "yes") || strings.EqualFold(answer, "y"), nil
}

func (a *App) Menus(ctx context.Context) error {
	menus, err := a.menus.ListCachedMenus(ctx)
	if err != nil {
		return err
	}
	if len(menus) == 0 {
		fmt.Fprintln(a.out, "No menus available offline.")
		return nil
	}
	for _, m := range menus {
		fmt.Fprintln(a.out, menuLine(m))
	}
	return nil
}

func menuLine(m *models.Menu) string {
	end, _ := m.EndDate()
	s := fmt.Sprintf("%-8s %-30s %s..%s (%d weeks)", m.ShortID, m.Name, m.StartDate, end, m.PeriodWeeks)
	if m.IsLocal() {
		s += " [not synced]"
	}
	return s
}

// Show selects a menu and prints its plan day by day.
func (a *App) Show(ctx context.Context, shortID string) error {
	m, err := a.menus.GetMenuByShortID(ctx, shortID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("menu %s: %w", shortID, common.ErrNotFound)
	}
	a.current = m
	if err := a.menus.RecordView(ctx, m.ID); err != nil && !errors.Is(err, common.ErrOffline) {
		a.log.Debug(ctx, "view not counted", "menu_id", m.ID, "err", err)
	}

	entries, err := a.menus.GetMenuEntries(ctx, m.ID)
	if err != nil {
		return err
	}
	names := a.mealNames(ctx)

	fmt.Fprintln(a.out, menuLine(m))
	if m.Description != "" {
		fmt.Fprintln(a.out, m.Description)
	}
	links := models.ShareLinks(m, a.config.BaseURL)
	fmt.Fprintln(a.out, "View:", links.View)
	if links.Edit != "" {
		fmt.Fprintln(a.out, "Edit:", links.Edit)
	}

	slots := make(map[models.EntryKey]*models.MenuEntry, len(entries))
	for _, e := range entries {
		slots[e.Key()] = e
	}
	for day := 0; day < m.TotalDays; day++ {
		date, err := m.DateForDay(day)
		if err != nil {
			return err
		}
		var parts []string
		for _, mt := range models.MealTypes {
			e, ok := slots[models.EntryKey{MenuID: m.ID, Date: date, MealType: mt}]
			if !ok {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", mt, entryLabel(e, names)))
		}
		if len(parts) == 0 {
			parts = []string{"-"}
		}
		fmt.Fprintf(a.out, "Day %2d %s  %s\n", day+1, date, strings.Join(parts, ", "))
	}
	return nil
}

func entryLabel(e *models.MenuEntry, names map[string]string) string {
	label := e.MealID
	if e.Meal != nil && e.Meal.Name != "" {
		label = e.Meal.Name
	} else if n, ok := names[e.MealID]; ok {
		label = n
	}
	if e.Notes != "" {
		label += " (" + e.Notes + ")"
	}
	return label
}

func (a *App) mealNames(ctx context.Context) map[string]string {
	meals, err := a.menus.GetPresetMeals(ctx)
	if err != nil {
		a.log.Warn(ctx, "preset meals unavailable", "err", err)
		return nil
	}
	out := make(map[string]string, len(meals))
	for _, m := range meals {
		out[m.ID] = m.Name
	}
	return out
}

func (a *App) Create(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Menu name", a.out)
	if err != nil {
		return err
	}
	desc, err := GetMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	weeks, err := GetInt(a.reader, "Number of weeks (1-4)", 1, a.out)
	if err != nil {
		return err
	}
	today := timeNow().Format(common.DateLayout)
	start, err := GetSimpleText(a.reader, fmt.Sprintf("Start date [%s]", today), a.out)
	if err != nil {
		return err
	}
	if start == "" {
		start = today
	}

	m, err := a.menus.CreateMenu(ctx, models.CreateMenuData{Name: name, Description: desc, PeriodWeeks: weeks, StartDate: start})
	if err := a.settle(err); err != nil {
		return err
	}
	a.current = m
	fmt.Fprintf(a.out, "Created menu %s (%s)\n", m.Name, m.ShortID)
	if links := models.ShareLinks(m, a.config.BaseURL); links.Edit != "" {
		fmt.Fprintln(a.out, "Edit link (keep it private):", links.Edit)
	}
	return nil
}

func (a *App) Rename(ctx context.Context) error {
	cur, err := a.selected()
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "New name", a.out)
	if err != nil {
		return err
	}
	m, err := a.menus.UpdateMenu(ctx, cur.ID, models.UpdateMenuData{Name: &name})
	if err := a.settle(err); err != nil {
		return err
	}
	if m != nil {
		a.current = m
	}
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	cur, err := a.selected()
	if err != nil {
		return err
	}
	ok, err := a.confirm(fmt.Sprintf("Delete menu %q", cur.Name))
	if err != nil || !ok {
		return err
	}
	if err := a.settle(a.menus.DeleteMenu(ctx, cur.ID)); err != nil {
		return err
	}
	a.current = nil
	return nil
}

// Assign puts a meal into a day slot of the selected menu.
func (a *App) Assign(ctx context.Context) error {
	cur, err := a.selected()
	if err != nil {
		return err
	}
	day, mt, err := a.readSlot(cur)
	if err != nil {
		return err
	}
	ref, err := GetSimpleText(a.reader, "Meal (id or name)", a.out)
	if err != nil {
		return err
	}
	meal, err := a.resolveMeal(ctx, ref)
	if err != nil {
		return err
	}
	notes, err := GetSimpleText(a.reader, "Notes (optional)", a.out)
	if err != nil {
		return err
	}

	e, err := a.menus.AssignMeal(ctx, cur.ID, day, mt, meal.ID, notes)
	if err := a.settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %s\n", e.Date, e.MealType, meal.Name)
	return nil
}

func (a *App) Unassign(ctx context.Context) error {
	cur, err := a.selected()
	if err != nil {
		return err
	}
	day, mt, err := a.readSlot(cur)
	if err != nil {
		return err
	}
	date, err := cur.DateForDay(day)
	if err != nil {
		return err
	}
	return a.settle(a.menus.DeleteEntry(ctx, models.EntryKey{MenuID: cur.ID, Date: date, MealType: mt}))
}

// readSlot asks for a one-based day number and a meal type and returns the
// zero-based day index.
func (a *App) readSlot(m *models.Menu) (int, models.MealType, error) {
	day, err := GetInt(a.reader, fmt.Sprintf("Day (1-%d)", m.TotalDays), 1, a.out)
	if err != nil {
		return 0, "", err
	}
	raw, err := GetSimpleText(a.reader, "Meal type (breakfast/lunch/dinner)", a.out)
	if err != nil {
		return 0, "", err
	}
	mt, err := models.ParseMealType(raw)
	if err != nil {
		return 0, "", err
	}
	return day - 1, mt, nil
}

// resolveMeal finds one preset or custom meal by id, exact name or a
// unique partial match.
func (a *App) resolveMeal(ctx context.Context, ref string) (*models.Meal, error) {
	meals, err := a.menus.SearchMeals(ctx, ref)
	if err != nil {
		return nil, err
	}
	for _, m := range meals {
		if m.ID == ref || strings.EqualFold(m.Name, ref) {
			return m, nil
		}
	}
	switch len(meals) {
	case 0:
		return nil, fmt.Errorf("meal %q: %w", ref, common.ErrNotFound)
	case 1:
		return meals[0], nil
	}
	for _, m := range meals {
		fmt.Fprintln(a.out, mealLine(m))
	}
	return nil, fmt.Errorf("%q matches %d meals, be more specific", ref, len(meals))
}

func mealLine(m *models.Meal) string {
	s := fmt.Sprintf("%-10s %s", m.ID, m.Name)
	if len(m.Tags) > 0 {
		s += " [" + strings.Join(m.Tags, ", ") + "]"
	}
	if !m.IsPreset {
		s += " (custom)"
	}
	return s
}

func (a *App) Meals(ctx context.Context, query string) error {
	meals, err := a.menus.SearchPresetMeals(ctx, query)
	if err != nil {
		return err
	}
	if len(meals) == 0 {
		fmt.Fprintln(a.out, "No meals found.")
		return nil
	}
	for _, m := range meals {
		fmt.Fprintln(a.out, mealLine(m))
	}
	return nil
}

// Import fetches a shared menu by short id and keeps it offline. With the
// edit key the menu becomes editable.
func (a *App) Import(ctx context.Context) error {
	shortID, err := GetSimpleText(a.reader, "Short id", a.out)
	if err != nil {
		return err
	}
	key, err := GetSimpleText(a.reader, "Edit key (optional)", a.out)
	if err != nil {
		return err
	}
	m, err := a.menus.ImportMenu(ctx, shortID, key)
	if err != nil {
		return err
	}
	a.current = m
	fmt.Fprintf(a.out, "Imported %s (%s)\n", m.Name, m.ShortID)
	return nil
}

func (a *App) Download(ctx context.Context) error {
	n, err := a.menus.DownloadMenus(ctx)
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintln(a.out, "Offline, nothing downloaded.")
		return nil
	}
	fmt.Fprintf(a.out, "Refreshed %d menus.\n", n)
	return err
}

func (a *App) Sync(ctx context.Context) error {
	rep, err := a.sync.ForceSync(ctx)
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintln(a.out, "Offline, changes stay queued.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synced: %d applied, %d retrying, %d abandoned, %d waiting.\n",
		rep.Resolved, rep.Retried, rep.Abandoned, rep.Deferred)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.sync.Status(ctx)
	if err != nil {
		return err
	}
	last := "never"
	if !st.LastSyncTime.IsZero() {
		last = st.LastSyncTime.Local().Format(time.DateTime)
	}
	mode := ModeOffline
	if st.IsOnline {
		mode = ModeOnline
	}
	fmt.Fprintf(a.out, "Mode: %s\nPending changes: %d\nLast sync: %s\n", mode, st.QueueLength, last)
	if st.IsSyncing {
		fmt.Fprintln(a.out, "Sync in progress.")
	}
	if st.Abandoned > 0 {
		fmt.Fprintf(a.out, "Dropped changes: %d\n", st.Abandoned)
	}
	return nil
}

func (a *App) Export(ctx context.Context) error {
	if a.exporter == nil {
		return errors.New("export is not configured (set export_bucket)")
	}
	key, err := a.exporter.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Exported to", key)
	return nil
}

// Clear wipes every cached menu, meal and queued change.
func (a *App) Clear(ctx context.Context) error {
	ok, err := a.confirm("Remove all offline data, including unsynced changes?")
	if err != nil || !ok {
		return err
	}
	if err := a.cache.ClearAll(ctx); err != nil {
		return err
	}
	a.current = nil
	fmt.Fprintln(a.out, "Offline data cleared.")
	return nil
}

// Discover lists public menus matching query, most recent first.
func (a *App) Discover(ctx context.Context, query string) error {
	page, err := a.menus.DiscoverMenus(ctx, models.DiscoverFilter{Search: query})
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintln(a.out, "Offline, discovery needs a connection.")
		return nil
	}
	if err != nil {
		return err
	}
	if len(page.Menus) == 0 {
		fmt.Fprintln(a.out, "No public menus found.")
		return nil
	}
	for _, d := range page.Menus {
		mark := " "
		if d.Starred {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s  stars %d, views %d\n", mark, menuLine(d.Menu), d.Menu.StarCount, d.Menu.ViewCount)
	}
	if page.HasMore {
		fmt.Fprintf(a.out, "Showing %d of %d, narrow the search to see more.\n", len(page.Menus), page.Total)
	}
	return nil
}

// Star toggles this install's star on the selected menu.
func (a *App) Star(ctx context.Context) error {
	cur, err := a.selected()
	if err != nil {
		return err
	}
	res, err := a.menus.ToggleStar(ctx, cur.ID)
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintln(a.out, "Offline, stars need a connection.")
		return nil
	}
	if err != nil {
		return err
	}
	cur.StarCount = res.StarCount
	if res.Starred {
		fmt.Fprintf(a.out, "Starred %s (%d stars).\n", cur.Name, res.StarCount)
	} else {
		fmt.Fprintf(a.out, "Unstarred %s (%d stars).\n", cur.Name, res.StarCount)
	}
	return nil
}

// AddMeal creates a custom meal from prompted fields.
func (a *App) AddMeal(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Meal name", a.out)
	if err != nil {
		return err
	}
	desc, err := GetSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	items, err := GetSimpleText(a.reader, "Food items, comma separated (optional)", a.out)
	if err != nil {
		return err
	}
	tags, err := GetSimpleText(a.reader, "Tags, comma separated (optional)", a.out)
	if err != nil {
		return err
	}

	m, err := a.menus.SaveMeal(ctx, "", models.MealInput{
		Name:        name,
		Description: desc,
		FoodItems:   splitList(items),
		Tags:        splitList(tags),
	})
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintln(a.out, "Offline, custom meals can only be added online.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added", mealLine(m))
	return nil
}

func (a *App) DeleteMeal(ctx context.Context, id string) error {
	ok, err := a.confirm(fmt.Sprintf("Delete meal %s", id))
	if err != nil || !ok {
		return err
	}
	return a.menus.DeleteMeal(ctx, id)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
