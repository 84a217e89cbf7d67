// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package errutil extracts oops metadata for logging and responses.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the error code of err, or "" when err carries none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// CodeOr returns the error code of err, or fallback when it has none.
func CodeOr(err error, fallback string) string {
	if code := Code(err); code != "" {
		return code
	}
	return fallback
}

// LogError logs err at error level with its code and context when present.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(ctx, msg, attrs(err)...)
}

// LogWarn is LogError at warn level, for failures reported back to a client.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.WarnContext(ctx, msg, attrs(err)...)
}

func attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	out := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		out = append(out, "code", code)
	}
	if kv := oopsErr.Context(); len(kv) > 0 {
		out = append(out, "context", kv)
	}
	return out
}
