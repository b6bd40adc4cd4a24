// Package cache implements the two local tiers of the bundle cache: a
// process-memory tier holding materialized module instances and a durable
// disk tier holding raw bundle bytes with checksum sidecars.
//
// Both tiers are dumb stores: checksum comparison against freshly resolved
// registry metadata is the loader's responsibility.
package cache
