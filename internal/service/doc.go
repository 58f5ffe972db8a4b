// Package service contains the application-specific use cases of arcana. It
// orchestrates the pure engines in internal/domain and the typed records in
// internal/store to fulfill player-facing features.
//
// Key components:
//
// 1. Service types:
//   - PlayerService registers, describes and resets players
//   - ReadingService runs the daily draw and the spread lifecycle
//   - StatusService reports gating and rewards state and selects skins
//
// 2. State discipline:
//   - Every read-modify-write holds a store.KeyLocker lock on the keys it touches
//   - Engine transitions are pure; the resulting records are written in one store.Batch
//   - One-shot XP awards are persisted as timestamps on the record they reward
//
// 3. Error Handling:
//   - Expected conditions are returned as sentinel errors
//   - Unexpected errors are wrapped in ServiceError
//
// The service layer depends on domain entities and the store.KV port, never
// on a specific backend.
package service
