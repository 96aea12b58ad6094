package storage

import (
	"fmt"

	"github.com/braddunbar/bradis/internal/resp"
)

// Shared error replies. Wire texts match the protocol exactly.
var (
	errWrongType    = resp.Error("WRONGTYPE Operation against a key holding the wrong kind of value")
	errSyntax       = resp.Error("ERR syntax error")
	errNotInteger   = resp.Error("ERR value is not an integer or out of range")
	errNotFloat     = resp.Error("ERR value is not a valid float")
	errBitOffset    = resp.Error("ERR bit offset is not an integer or out of range")
	errBitValue     = resp.Error("ERR The bit argument must be 1 or 0.")
	errOverflowType = resp.Error("ERR Invalid OVERFLOW type specified")
	errNoSuchKey    = resp.Error("ERR no such key")
	errSameObject   = resp.Error("ERR source and destination objects are the same")
	errDBIndex      = resp.Error("ERR DB index is out of range")
	errIndexRange   = resp.Error("ERR index out of range")
	errOffsetRange  = resp.Error("ERR offset is out of range")
	errIncrOverflow = resp.Error("ERR increment or decrement would overflow")
	errIncrNaN      = resp.Error("ERR increment would produce NaN or Infinity")
	errExecNoMulti  = resp.Error("ERR EXEC without MULTI")
	errExecAbort    = resp.Error("EXECABORT Transaction discarded because of previous errors.")
	errWatchInMulti = resp.Error("ERR WATCH inside MULTI is not allowed")
	errNoProto      = resp.Error("NOPROTO unsupported protocol version")
	errUnblocked    = resp.Error("UNBLOCKED client unblocked via CLIENT UNBLOCK")
	errStringLength = resp.Error("ERR string exceeds maximum allowed size (proto-max-bulk-len)")
	errTimeout      = resp.Error("ERR timeout is not a float or out of range")
	errNegTimeout   = resp.Error("ERR timeout is negative")
	errClientName   = resp.Error("ERR Client names cannot contain spaces, newlines or special characters.")
)

func errArity(name string) resp.Error {
	return resp.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
}

func errUnknownCommand(name string) resp.Error {
	return resp.Error(fmt.Sprintf("ERR unknown command '%s'", name))
}

func errUnknownSubcommand(sub, cmd string) resp.Error {
	return resp.Error(fmt.Sprintf(
		"ERR Unknown subcommand or wrong number of arguments for '%s'. Try %s HELP.", sub, cmd))
}

func errInvalidExpire(cmd string) resp.Error {
	return resp.Error(fmt.Sprintf("ERR invalid expire time in '%s' command", cmd))
}

func errPubsubContext(cmd string) resp.Error {
	return resp.Error(fmt.Sprintf(
		"ERR Can't execute '%s': only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context", cmd))
}
