// Package migration manages the registry database schema. Migration SQL
// for each supported dialect is embedded, so the binary can migrate any
// registry it can connect to.
package migration
