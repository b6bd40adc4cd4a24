// Package metrics provides internal Prometheus metrics for the bundle loader.
// This package is internal and should not be imported by external projects.
package metrics
