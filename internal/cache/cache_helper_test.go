package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedQuiz struct {
	UnitID        string `json:"unit_id"`
	Category      string `json:"category"`
	QuestionCount int    `json:"question_count"`
}

func newTestHelper(t *testing.T) *CacheHelper {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, QuizCacheConfig.Prefix)
}

func TestCacheHelperRoundTrip(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	in := cachedQuiz{UnitID: "unit7", Category: "vocabulary", QuestionCount: 10}
	if err := helper.Set(ctx, "key:unit7_vocabulary", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out cachedQuiz
	if err := helper.Get(ctx, "key:unit7_vocabulary", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestCacheHelperMiss(t *testing.T) {
	helper := newTestHelper(t)

	var out cachedQuiz
	err := helper.Get(context.Background(), "key:missing", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelperNilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "quiz:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("set with nil client must be a no-op, got %v", err)
	}
	var out string
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("delete with nil client must be a no-op, got %v", err)
	}
}

func TestCacheOrExecuteFetchesOnMiss(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	fetches := 0
	var out cachedQuiz
	err := helper.CacheOrExecute(ctx, "key:unit1_grammar", &out, time.Minute, func() (interface{}, error) {
		fetches++
		return cachedQuiz{UnitID: "unit1", Category: "grammar", QuestionCount: 5}, nil
	})
	if err != nil {
		t.Fatalf("cache or execute: %v", err)
	}
	if fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches)
	}
	if out.QuestionCount != 5 {
		t.Errorf("destination not populated: %+v", out)
	}
}

func TestCacheOrExecuteSkipsFetchOnHit(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	in := cachedQuiz{UnitID: "unit2", Category: "reading", QuestionCount: 8}
	if err := helper.Set(ctx, "key:unit2_reading", in, time.Minute); err != nil {
		t.Fatal(err)
	}

	var out cachedQuiz
	err := helper.CacheOrExecute(ctx, "key:unit2_reading", &out, time.Minute, func() (interface{}, error) {
		return nil, errors.New("fetch must not run on a cache hit")
	})
	if err != nil {
		t.Fatalf("cache or execute: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"list:1", "list:2", "key:unit9_writing"} {
		if err := helper.Set(ctx, key, "x", time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	var out string
	if err := helper.Get(ctx, "list:1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Error("list entries should have been invalidated")
	}
	if err := helper.Get(ctx, "key:unit9_writing", &out); err != nil {
		t.Errorf("unrelated key should survive, got %v", err)
	}
}
