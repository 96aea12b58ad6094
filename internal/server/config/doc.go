// Package config defines the server configuration structure.
//
// The structs carry koanf tags and are loaded by confloader from a YAML
// file and BRADIS_ environment variables. The limits section seeds the
// store's runtime parameters; afterwards CONFIG SET owns them.
package config
