package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// Default reader limits, adjustable at runtime via CONFIG SET.
const (
	DefaultBlobLimit   = 512 * 1024 * 1024
	DefaultInlineLimit = 64 * 1024
)

// ReaderConfig carries the protocol limits shared between the store (which
// applies CONFIG SET) and every connection reader.
type ReaderConfig struct {
	blobLimit   atomic.Int64
	inlineLimit atomic.Int64
}

// NewReaderConfig returns a config with default limits.
func NewReaderConfig() *ReaderConfig {
	c := &ReaderConfig{}
	c.blobLimit.Store(DefaultBlobLimit)
	c.inlineLimit.Store(DefaultInlineLimit)
	return c
}

// BlobLimit returns the maximum bulk string size (proto-max-bulk-len).
func (c *ReaderConfig) BlobLimit() int64 { return c.blobLimit.Load() }

// SetBlobLimit sets the maximum bulk string size.
func (c *ReaderConfig) SetBlobLimit(n int64) { c.blobLimit.Store(n) }

// InlineLimit returns the maximum inline command length.
func (c *ReaderConfig) InlineLimit() int64 { return c.inlineLimit.Load() }

// SetInlineLimit sets the maximum inline command length.
func (c *ReaderConfig) SetInlineLimit(n int64) { c.inlineLimit.Store(n) }

// ProtocolError is an error produced while reading a command. Fatal errors
// close the connection after the reply is written; recoverable ones (inline
// parse errors) leave it open.
type ProtocolError struct {
	Message string
	Fatal   bool
}

func (e *ProtocolError) Error() string { return e.Message }

var (
	errInvalidBlobLength = &ProtocolError{Message: "Protocol Error: invalid blob length", Fatal: true}
	errInvalidMultibulk  = &ProtocolError{Message: "Protocol Error: invalid multibulk length", Fatal: true}
	errBlobTooLong       = &ProtocolError{Message: "ERR string exceeds maximum allowed size (proto-max-bulk-len)", Fatal: true}
	errInvalidArguments  = &ProtocolError{Message: "ERR Invalid argument(s)", Fatal: false}
)

// Reader assembles commands from a connection's byte stream.
type Reader struct {
	br  *bufio.Reader
	cfg *ReaderConfig
}

// NewReader wraps r with the given shared limits.
func NewReader(r io.Reader, cfg *ReaderConfig) *Reader {
	if cfg == nil {
		cfg = NewReaderConfig()
	}
	return &Reader{br: bufio.NewReader(r), cfg: cfg}
}

// Peek exposes the next byte without consuming it, so callers can apply an
// idle deadline before the command starts.
func (r *Reader) Peek() error {
	_, err := r.br.Peek(1)
	return err
}

// ReadCommand reads one complete command. A nil, nil return means an empty
// command (blank inline line) that the caller should skip silently.
func (r *Reader) ReadCommand() ([][]byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '*' {
		return r.readArray()
	}
	return r.readInline()
}

func (r *Reader) readArray() ([][]byte, error) {
	line, err := r.readLine(64)
	if err != nil {
		return nil, err
	}
	n, ok := parseInt(line[1:])
	if !ok || n > 1024*1024 {
		return nil, errInvalidMultibulk
	}
	if n <= 0 {
		return nil, nil
	}

	args := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		arg, err := r.readBlob()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (r *Reader) readBlob() ([]byte, error) {
	line, err := r.readLine(64)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '$' {
		return nil, errInvalidBlobLength
	}
	n, ok := parseInt(line[1:])
	if !ok || n < 0 {
		return nil, errInvalidBlobLength
	}
	if n > r.cfg.BlobLimit() {
		return nil, errBlobTooLong
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, errInvalidBlobLength
	}
	return buf[:n], nil
}

// readInline parses a whitespace-separated command line with quote handling.
func (r *Reader) readInline() ([][]byte, error) {
	line, err := r.readLine(int(r.cfg.InlineLimit()))
	if err != nil {
		return nil, err
	}

	var args [][]byte
	i := 0
	for i < len(line) {
		// Skip separators.
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}

		var arg []byte
		switch line[i] {
		case '"':
			arg, i, err = parseDoubleQuoted(line, i+1)
		case '\'':
			arg, i, err = parseSingleQuoted(line, i+1)
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' {
				if line[i] == '"' || line[i] == '\'' {
					return nil, errInvalidArguments
				}
				i++
			}
			arg = line[start:i]
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

func parseDoubleQuoted(line []byte, i int) ([]byte, int, error) {
	var out []byte
	for i < len(line) {
		switch {
		case line[i] == '"':
			// A closing quote must end the token.
			i++
			if i < len(line) && line[i] != ' ' && line[i] != '\t' {
				return nil, 0, errInvalidArguments
			}
			return out, i, nil
		case line[i] == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 'x':
				if i+2 >= len(line) {
					out = append(out, 'x')
					i++
					continue
				}
				hi, ok1 := hexDigit(line[i+1])
				lo, ok2 := hexDigit(line[i+2])
				if ok1 && ok2 {
					out = append(out, hi<<4|lo)
					i += 3
				} else {
					out = append(out, 'x')
					i++
				}
			case 'n':
				out = append(out, '\n')
				i++
			case 'r':
				out = append(out, '\r')
				i++
			case 't':
				out = append(out, '\t')
				i++
			case 'a':
				out = append(out, '\a')
				i++
			case 'b':
				out = append(out, '\b')
				i++
			default:
				out = append(out, line[i])
				i++
			}
		default:
			out = append(out, line[i])
			i++
		}
	}
	return nil, 0, errInvalidArguments
}

func parseSingleQuoted(line []byte, i int) ([]byte, int, error) {
	var out []byte
	for i < len(line) {
		switch {
		case line[i] == '\'':
			i++
			if i < len(line) && line[i] != ' ' && line[i] != '\t' {
				return nil, 0, errInvalidArguments
			}
			return out, i, nil
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '\'':
			out = append(out, '\'')
			i += 2
		default:
			out = append(out, line[i])
			i++
		}
	}
	return nil, 0, errInvalidArguments
}

// readLine reads a CRLF terminated line, without the terminator.
func (r *Reader) readLine(maxLen int) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return nil, &ProtocolError{
					Message: fmt.Sprintf("Protocol Error: too big inline request (limit %d)", maxLen),
					Fatal:   true,
				}
			}
			continue
		}
		return nil, err
	}

	if len(buf) > maxLen {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("Protocol Error: too big inline request (limit %d)", maxLen),
			Fatal:   true,
		}
	}

	// Accept bare LF for inline clients; arrays always send CRLF.
	if len(buf) >= 2 && buf[len(buf)-2] == '\r' {
		return buf[:len(buf)-2], nil
	}
	return buf[:len(buf)-1], nil
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// parseInt parses a decimal integer with an optional leading minus.
func parseInt(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i++
		if i == len(b) {
			return 0, false
		}
	}
	var n int64
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, false
		}
		d := int64(b[i] - '0')
		if n > (1<<63-1-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if neg {
		n = -n
	}
	return n, true
}
