// Package config reads and writes ~/.tokrelay/cli.yaml, which holds saved
// server profiles and the default output format for tokrelay-cli.
package config
