// Package cache stores fetched puzzle data under stable string keys.
//
// A present, non-empty entry is authoritative: there is no expiry and no
// invalidation. Dir keeps one plain-text file per key on disk; Memory backs
// tests. Both satisfy Cache.
package cache
