// Package respserver provides the TCP front of bradis.
//
// Each connection runs two goroutines: a reader that assembles RESP or
// inline commands and submits them to the store executor, and a writer that
// drains the client's outbox, serializing replies for the negotiated
// protocol version. All session semantics live in the store; this package
// only moves frames.
package respserver
