// Package loader orchestrates the three-tier bundle cache: process memory,
// local disk, and the remote authoritative store. It resolves package
// metadata, validates checksums, populates lower tiers on miss, collapses
// concurrent loads of the same key into one remote fetch, and records
// hit/miss statistics.
package loader
