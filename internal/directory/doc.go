// Package directory holds the configured people, rooms, and group
// settings that announcement routing operates on.
//
// Records are persisted in SQLite and served from an in-memory Registry
// cache. All writes go through the Registry so the cache never drifts
// from the database. Validation happens once at the create/update
// boundary; everything downstream can trust the records.
package directory
