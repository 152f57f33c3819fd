// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package correlation tags each seedshard invocation with an ID so that log
// records from one run can be grouped, including runs chained by scripts.
package correlation

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	// CorrelationIDKey is the context key for storing correlation IDs
	CorrelationIDKey contextKey = "correlation-id"

	// LogKey is the attribute name used in log records.
	LogKey = "correlation_id"

	// EnvVar lets a wrapping script pass its own ID to every invocation.
	EnvVar = "SEEDSHARD_CORRELATION_ID"
)

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID retrieves the correlation ID from context.
// Returns an empty string if no correlation ID is found.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 correlation ID.
func NewID() string {
	return uuid.New().String()
}

// GetOrGenerate returns the ID stored in ctx, then the ID from EnvVar, and
// otherwise a new one.
func GetOrGenerate(ctx context.Context) string {
	if id := GetCorrelationID(ctx); id != "" {
		return id
	}
	if id := strings.TrimSpace(os.Getenv(EnvVar)); id != "" {
		return id
	}
	return NewID()
}

// Ensure returns ctx carrying a correlation ID along with that ID.
func Ensure(ctx context.Context) (context.Context, string) {
	id := GetOrGenerate(ctx)
	return WithCorrelationID(ctx, id), id
}
