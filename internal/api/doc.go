// Package api is the HTTP adapter: routing targets, request decoding and
// validation, and response formatting. Handlers translate HTTP concerns into
// calls on the application services and map service errors back to status
// codes.
package api
