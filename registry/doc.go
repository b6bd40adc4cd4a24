// Package registry resolves package keys to bundle locations and checksums.
// The registry is an external system of record consumed read-only; this
// package provides a GORM-backed resolver for it plus an in-memory resolver
// for embedding and tests.
package registry
