package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// surfacing the error. Invalidation failures must never fail a write.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of surfacing the error.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuizCache drops the config entry and related stats for one
// (unit, category) pair.
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, unitID, category string) {
	SafeDelete(ctx, cm.Quiz, fmt.Sprintf("key:%s_%s", unitID, category))
	SafeInvalidatePattern(ctx, cm.Quiz, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("quiz:%s_%s:*", unitID, category))
}

// InvalidateQuestionCache drops the pool entry for one (unit, category) pair.
// Any pool edit invalidates the whole pool; entries are cached as a unit.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, unitID, category string) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("pool:%s_%s", unitID, category))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
}
