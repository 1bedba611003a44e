// Package syncer drains the queue of pending mutations against the remote
// service.
//
// A drain is started by a connectivity transition to online, by a periodic
// tick, or by ForceSync. At most one drain runs at a time; a trigger arriving
// while one is running is dropped. Items are applied oldest first. A failed
// item keeps its place and its retry counter grows; at the retry ceiling it
// is abandoned. Connectivity is checked between items and a drain stops as
// soon as the backend becomes unreachable.
//
// Menus created offline carry a temporary id. When their creation is
// confirmed, the temporary id is replaced everywhere in the cache and in the
// remaining queue, and the rest of the drain uses the server id.
package syncer
