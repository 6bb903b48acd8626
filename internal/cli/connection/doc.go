// Package connection provides the HTTP client tokrelay-cli uses to reach
// the admin API of a TokRelay server.
package connection
