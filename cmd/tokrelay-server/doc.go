// Package main provides the entry point for tokrelay-server.
//
// tokrelay-server accepts reports posted to /collect/{token}, formats them
// and delivers them to the Telegram chat that owns the token. Tokens are
// managed through the /admin/v1 API, guarded by an API key.
//
// Usage:
//
//	tokrelay-server -config /etc/tokrelay/server.yaml
//
// Every setting can be overridden from the environment with the TOKRELAY_
// prefix, using "__" between levels (TOKRELAY_TELEGRAM__BOT_TOKEN).
package main
