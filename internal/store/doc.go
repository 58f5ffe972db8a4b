// Package store defines the key-value persistence port and the typed record
// layer built on it. Backends (SQLite, PostgreSQL, the read-through cache)
// implement KV; services only see Records, which owns the key namespace and
// the record encoding.
//
// Keys are namespaced per player and, for day-scoped records, per calendar day:
//
//	player/{pid}/character
//	player/{pid}/rewards
//	player/{pid}/gating/{YYYY-MM-DD}
//	player/{pid}/draw/{YYYY-MM-DD}
//	player/{pid}/spread/{YYYY-MM-DD}/{spreadID}
//	player/{pid}/spread-index/{spreadID}
package store
