// Package middleware groups the HTTP middlewares shared across features:
// ray-id request tracing (middleware/rayid) and API key authentication
// (middleware/auth).
package middleware
