// Package meals stores the preset meal catalog in SQLite.
//
// Tags are kept twice: as a JSON array on the meal row and as one row per
// tag in preset_meal_tags, which backs the multi-valued tag index. Tag
// lookups are case-insensitive.
package meals
