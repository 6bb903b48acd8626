// Package output renders tokrelay-cli results as a table, JSON or YAML.
package output
