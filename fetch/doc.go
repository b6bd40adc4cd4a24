// Package fetch retrieves raw bundle bytes from the authoritative remote
// store. Fetchers are transport-specific (HTTP, Redis) and carry no retry
// policy; the loader decides what a failed download means.
package fetch
