// Package config loads runtime configuration for the meal planner client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. MEALPLANNER_* environment variables, with an optional dotenv file
//     (-e or -env, default .env) filling in unset variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   local database file
//	-r string   remote Postgres DSN
//	-h string   gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-s int      sync interval (seconds)
//
// # JSON schema
//
//	{
//	  "database_path": "data/mealplanner.db",
//	  "remote_dsn": "postgres://planner@localhost:5432/planner",
//	  "online_check_interval": "3s",
//	  "sync_interval": "30s",
//	  "base_url": "https://plan.example.com"
//	}
package config
