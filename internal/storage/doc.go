// Package storage persists render completion records.
//
// Drivers:
//   - "sqlite": SQLite database file (modernc.org/sqlite, pure Go)
//   - "file": append-only JSON Lines file
//   - "redis": capped list on a Redis server (go-redis), Path is a redis:// URL
//
// An empty driver or "none" disables storage; Open then returns (nil, nil).
package storage
