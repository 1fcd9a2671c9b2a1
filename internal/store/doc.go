// Package store defines the persistence interfaces consumed by the service
// layer, the shared DBTX abstraction satisfied by both *sql.DB and *sql.Tx,
// the RunInTransaction helper that scopes a unit of work, and the sentinel
// errors implementations translate database failures into.
//
// Concrete implementations live in internal/platform/postgres.
package store
