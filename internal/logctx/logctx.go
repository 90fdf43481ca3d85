// Package logctx はリクエストスコープのロガーをコンテキストに格納・取得するための
// 共通パッケージです。middleware と repository の両方から参照されるため、
// 循環importを避ける目的で独立させています。
package logctx

import (
	"context"
	"log/slog"
)

// logCtxKey はコンテキストにロガーを格納するためのキーです。
type logCtxKey struct{}

// WithLogger はロガーを格納した新しいコンテキストを返します。
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// GetLogger はコンテキストから slog.Logger を取得します。
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
