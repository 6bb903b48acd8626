// Package shutdown coordinates graceful termination of tokrelay-server.
//
// Components register named hooks; on SIGINT/SIGTERM (or when the
// supplied context ends) the hooks run in reverse registration order
// under a shared timeout.
package shutdown
