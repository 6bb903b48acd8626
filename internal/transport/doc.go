// Package transport delivers report summaries and attachments to a
// push-message endpoint.
//
// The package is split in three layers:
//
//   - retry.go: a bounded retry policy, independent of any transport
//   - client.go: Client, which applies the policy and a per-attempt
//     timeout to a Sender and turns every failure into a Result value
//   - telegram.go / logsender.go: Sender implementations
//
// Client never returns an error past its boundary; callers inspect
// Result.OK and Result.Err.
package transport
