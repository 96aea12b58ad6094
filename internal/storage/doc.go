// Package storage implements the bradis store: sixteen databases, the
// single-threaded command executor, and every command handler.
//
// All keyspace state is owned by one goroutine. Connections submit messages
// (connect, disconnect, ready-to-run command) over a single channel; the
// executor applies them sequentially, which gives Redis-style atomicity
// without key locking. Client session state (selected database, transaction
// queue, watch set, subscriptions, reply mode) also lives here and is only
// touched on the executor goroutine; the connection's reader and writer see
// nothing but raw frames and the client's outbox.
package storage
