// Package storage provides the persistent storage layer of TokRelay.
//
// BadgerEngine wraps Badger v3 behind the KVEngine interface. On top of it,
// TokenRepository and ReportRepository implement the service repository
// interfaces with CBOR-encoded records:
//
//	token/<id>              token record
//	owner/<owner>/<id>      owner index entry (empty value)
//	report/<id>             pending report, written with a TTL
//
// Reports are deleted once delivered; the TTL only bounds how long a report
// can survive a crash between acceptance and delivery.
//
// The in-memory repositories live in the memory subpackage.
package storage
