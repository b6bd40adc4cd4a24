// Package main is the bundleflow daemon: it serves the admin HTTP API
// over a tiered bundle loader, and carries database migration, health
// check, and version subcommands.
package main
