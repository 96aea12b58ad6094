// Package glob implements the pattern matcher used by KEYS, SCAN,
// PUBSUB CHANNELS, and pattern subscriptions.
//
// Supported syntax: `?` matches one byte, `*` matches zero or more bytes,
// `[set]` matches a class with ranges and `^` negation, and `\` escapes the
// next byte. Matching operates on raw bytes, not runes.
package glob
