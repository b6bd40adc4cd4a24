// Package testutil provides shared test helpers for bundleflow packages.
package testutil
