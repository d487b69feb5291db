package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyCorrelationId = ContextKey("CorrelationId")
	ContextKeyChatId        = ContextKey("ChatId")

	// ContextKeyTriggeredBy records what started a reconciliation run
	// ("schedule", "api", "telegram", "cli").
	ContextKeyTriggeredBy = ContextKey("TriggeredBy")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetInt64(ctx context.Context, key ContextKey) (int64, bool) {
	v, ok := ctx.Value(key).(int64)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
