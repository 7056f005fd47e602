package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerContextKey  struct{}
	journalContextKey struct{}
)

// ToContext returns a copy of ctx that carries l.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return global
	}

	if l, ok := ctx.Value(loggerContextKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return global
}

// WithName adds a name segment to the context logger and journal.
func WithName(ctx context.Context, name string) context.Context {
	ctx = ToContext(ctx, FromContext(ctx).Named(name))

	if j, ok := ctx.Value(journalContextKey{}).(*zap.SugaredLogger); ok && j != nil {
		ctx = JournalToContext(ctx, j.Named(name))
	}

	return ctx
}

// WithKV attaches key-value pairs to every subsequent line logged through
// ctx, journal included.
func WithKV(ctx context.Context, kvs ...any) context.Context {
	ctx = ToContext(ctx, FromContext(ctx).With(kvs...))

	if j, ok := ctx.Value(journalContextKey{}).(*zap.SugaredLogger); ok && j != nil {
		ctx = JournalToContext(ctx, j.With(kvs...))
	}

	return ctx
}

// JournalToContext returns a copy of ctx that carries the file-only journal l.
func JournalToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, journalContextKey{}, l)
}

// Journal returns the journal stored in ctx. Without one, entries are discarded.
func Journal(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return nop
	}

	if l, ok := ctx.Value(journalContextKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return nop
}
