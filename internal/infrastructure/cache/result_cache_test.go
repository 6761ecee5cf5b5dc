package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewResultCache(t *testing.T) {
	cache := NewResultCache[string](time.Minute, 10)
	if cache == nil {
		t.Fatal("expected cache to be created, got nil")
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", cache.Len())
	}
}

func TestResultCache_Get(t *testing.T) {
	tests := []struct {
		name       string
		setupCache func() *ResultCache[string]
		expectedOk bool
		expected   string
	}{
		{
			name: "empty cache",
			setupCache: func() *ResultCache[string] {
				return NewResultCache[string](time.Hour, 0)
			},
			expectedOk: false,
		},
		{
			name: "valid entry",
			setupCache: func() *ResultCache[string] {
				cache := NewResultCache[string](time.Hour, 0)
				cache.Set("k", "value")
				return cache
			},
			expectedOk: true,
			expected:   "value",
		},
		{
			name: "expired entry",
			setupCache: func() *ResultCache[string] {
				cache := NewResultCache[string](time.Hour, 0)
				cache.Set("k", "value")
				cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
				return cache
			},
			expectedOk: false,
		},
		{
			name: "disabled cache",
			setupCache: func() *ResultCache[string] {
				cache := NewResultCache[string](0, 0)
				cache.Set("k", "value")
				return cache
			},
			expectedOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := tt.setupCache()
			value, ok := cache.Get("k")

			if ok != tt.expectedOk {
				t.Errorf("expected ok=%v, got %v", tt.expectedOk, ok)
			}
			if value != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, value)
			}
		})
	}
}

func TestResultCache_EvictsWhenFull(t *testing.T) {
	base := time.Now()
	tick := 0
	cache := NewResultCache[int](time.Hour, 2)
	cache.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if v, ok := cache.Get("c"); !ok || v != 3 {
		t.Errorf("expected newest entry to be kept, got %d (ok=%v)", v, ok)
	}
}

func TestResultCache_Clear(t *testing.T) {
	cache := NewResultCache[string](time.Hour, 0)
	cache.Set("k", "value")
	cache.Clear()

	if _, ok := cache.Get("k"); ok {
		t.Error("expected cache to be empty after Clear")
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("factura"))
	b := Digest([]byte("factura"))
	c := Digest([]byte("otra"))

	if a != b {
		t.Error("expected identical content to share a digest")
	}
	if a == c {
		t.Error("expected different content to differ")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestResultCache_Concurrency(t *testing.T) {
	cache := NewResultCache[int](time.Hour, 50)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%20)
			cache.Set(key, n)
			cache.Get(key)
		}(i)
	}

	wg.Wait()

	if cache.Len() > 50 {
		t.Errorf("expected at most 50 entries, got %d", cache.Len())
	}
}
