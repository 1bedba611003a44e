// Package cli provides the interactive meal planner command-line client.
//
// The REPL works the same online and offline: reads come from the remote
// service when reachable and from the local cache otherwise, and writes made
// offline are queued and pushed by the synchronizer later. The prompt shows
// the current mode and the number of pending changes.
//
// Key features:
//   - List offline menus, show a menu day by day with its share links
//   - Create, rename and delete menus
//   - Assign and unassign meals per day and meal type
//   - Search preset meals
//   - Import shared menus, refresh everything for offline use
//   - Force a sync, show sync status, export a snapshot to S3
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, WatchConnectivity, and runREPL for details.
package cli
