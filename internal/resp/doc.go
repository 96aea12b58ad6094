// Package resp implements the Redis serialization protocol.
//
// It provides three pieces: a reply tree that commands build without knowing
// the negotiated protocol version, a writer that serializes replies as RESP2
// or RESP3 frames, and a reader that assembles client commands from array or
// inline frames.
package resp
