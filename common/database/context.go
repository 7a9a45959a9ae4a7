// Package database holds the timeouts applied to repository calls.
package database

import (
	"context"
	"time"
)

const (
	// DefaultPingTimeout bounds readiness probes.
	DefaultPingTimeout = 2 * time.Second

	// DefaultQueryTimeout bounds single-row and filtered reads.
	DefaultQueryTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds upserts and inserts.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBulkTimeout bounds full-table scans such as the active roster.
	DefaultBulkTimeout = 30 * time.Second
)

// PingContext derives a context with DefaultPingTimeout.
func PingContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}

// QueryContext derives a context with DefaultQueryTimeout.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext derives a context with DefaultWriteTimeout.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}

// BulkContext derives a context with DefaultBulkTimeout.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultBulkTimeout)
}
