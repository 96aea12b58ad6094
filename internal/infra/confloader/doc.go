// Package confloader provides configuration loading for bradis.
//
// It uses koanf to merge sources with increasing priority: struct defaults,
// a YAML configuration file, then BRADIS_ environment variables. A
// fsnotify-based watcher reloads the file on change so the server can
// reapply the log level and runtime limits without restarting.
package confloader
