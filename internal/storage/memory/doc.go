// Package memory provides in-memory repositories for TokRelay.
//
// Tokens and reports live in sharded concurrent maps (pkg/cmap) and are
// lost on restart. An owner index gives per-owner token listing without a
// full scan.
//
// All operations are safe for concurrent use. Values are cloned on the way
// in and out so callers never share state with the store.
package memory
