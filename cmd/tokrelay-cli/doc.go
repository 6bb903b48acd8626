// Package main provides the entry point for tokrelay-cli.
//
// tokrelay-cli manages collection tokens of a TokRelay server through its
// admin API:
//
//	tokrelay-cli --api-key $KEY token create --owner 123456789 --label laptop
//	tokrelay-cli token list --owner 123456789
//	tokrelay-cli system ready
package main
