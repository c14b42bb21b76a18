// Package store provides the database client owned by the service.
//
// Client wraps a gorm connection that is opened by Connect and released by
// Disconnect, which makes it the persistence collaborator of the lifecycle
// service. PostgreSQL (postgres://, postgresql://) and SQLite (sqlite:, file:)
// URLs are supported.
package store
