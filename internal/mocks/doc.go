// Package mocks holds hand-written test doubles for the store and service
// interfaces. Each mock exposes optional function fields; when a field is
// nil the mock falls back to a simple in-memory default.
package mocks
