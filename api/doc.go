// Package api exposes the bundle loader's operations over HTTP for the
// admin dashboard and operational tooling. Authentication and tenant
// resolution happen upstream; this surface trusts its callers.
package api
