// Package command defines the tokrelay-cli commands.
//
// The token group manages collection tokens through the admin API, the
// system group checks /health and /ready, and the config group manages
// saved server profiles. Every command resolves its connection from flags,
// environment and the selected profile, in that order.
package command
