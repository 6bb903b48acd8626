// Package confloader loads TokRelay configuration with koanf.
//
// Sources, lowest priority first: the defaults already present in the
// target struct, a YAML file, then TOKRELAY_ environment variables where
// "__" separates nesting levels (TOKRELAY_RELAY__MAX_RETRIES sets
// relay.max_retries).
//
// Watcher reports changes to the configuration file through fsnotify so
// the server can apply hot-reloadable settings such as log.level.
package confloader
