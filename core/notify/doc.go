// Package notify provides a typed observer registry with synchronous,
// same-goroutine delivery semantics.
//
// The registry replaces ad-hoc event-callback fields: consumers subscribe
// explicitly and receive events on the publishing goroutine, in subscription
// order. Delivery is not buffered and not concurrent, so subscribers see
// events in the order they were published by any single caller.
package notify
