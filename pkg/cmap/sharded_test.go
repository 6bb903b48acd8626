package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestMap_Basic(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Error("a should be deleted")
	}
}

func TestNewWithShards_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -1, 3, 12} {
		m := NewWithShards[int, int](n)
		if len(m.shards) != DefaultShardCount {
			t.Errorf("NewWithShards(%d) shards = %d, want %d", n, len(m.shards), DefaultShardCount)
		}
	}
	if m := NewWithShards[int, int](64); len(m.shards) != 64 {
		t.Errorf("shards = %d, want 64", len(m.shards))
	}
}

func TestMap_SetIfAbsent(t *testing.T) {
	m := New[string, string]()
	if !m.SetIfAbsent("k", "first") {
		t.Fatal("first SetIfAbsent should succeed")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("second SetIfAbsent should fail")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("value = %q, want first", v)
	}
}

func TestMap_Compute(t *testing.T) {
	m := New[string, int]()

	got := m.Compute("n", func(old int, exists bool) (int, bool) {
		if exists {
			t.Error("key should not exist yet")
		}
		return old + 1, true
	})
	if got != 1 {
		t.Errorf("Compute() = %d, want 1", got)
	}

	m.Compute("n", func(old int, exists bool) (int, bool) { return 0, false })
	if _, ok := m.Get("n"); ok {
		t.Error("Compute with keep=false should delete")
	}
}

func TestMap_ComputeConcurrent(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Compute("counter", func(old int, _ bool) (int, bool) { return old + 1, true })
			}
		}()
	}
	wg.Wait()

	if v, _ := m.Get("counter"); v != 5000 {
		t.Errorf("counter = %d, want 5000", v)
	}
}

func TestMap_RangeAndDeleteIf(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	seen := 0
	m.Range(func(k, v int) bool {
		seen++
		return true
	})
	if seen != 100 {
		t.Errorf("Range visited %d, want 100", seen)
	}

	stopped := 0
	m.Range(func(k, v int) bool {
		stopped++
		return stopped < 10
	})
	if stopped != 10 {
		t.Errorf("Range should stop after 10, visited %d", stopped)
	}

	removed := m.DeleteIf(func(k, v int) bool { return v%2 == 0 })
	if removed != 50 || m.Len() != 50 {
		t.Errorf("DeleteIf removed %d, len %d", removed, m.Len())
	}
	if len(m.Values()) != 50 {
		t.Errorf("Values() len = %d", len(m.Values()))
	}
}

func TestMap_ConcurrentSetGet(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k-%d-%d", n, j)
				m.Set(key, j)
				if _, ok := m.Get(key); !ok {
					t.Errorf("missing %s", key)
				}
			}
		}(i)
	}
	wg.Wait()
	if m.Len() != 2000 {
		t.Errorf("Len() = %d, want 2000", m.Len())
	}
}
