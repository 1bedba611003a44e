// Package postgres implements remote.Service over the hosted PostgreSQL
// database of the meal planner (tables menuapp_menus, menuapp_menu_entries
// and menuapp_meals), using the pgx stdlib driver.
//
// Menus are created with a client-generated short id and edit key; a short
// id collision is retried with a fresh one.
package postgres
