// Package store holds the persisted puzzle-title document: a JSON object of
// year → day → title. Recorded titles are never overwritten, and Marshal
// produces a canonical, byte-stable encoding so repeated runs against
// unchanged data rewrite identical files.
package store
