// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread over a power-of-two number of shards, each guarded by its
// own RWMutex, so unrelated keys rarely contend:
//
//	m := cmap.New[string, *domain.Token]()
//	m.Set("trk_abc", tok)
//	tok, ok := m.Get("trk_abc")
//
// Compute runs a read-modify-write under the shard lock and is the building
// block for atomic counters and conditional inserts.
package cmap
