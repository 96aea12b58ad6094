package resp

import (
	"bufio"
	"math"
	"strconv"
)

var crlf = []byte("\r\n")

// Write serializes a reply tree to w using the given protocol version.
// The caller is responsible for flushing.
func Write(w *bufio.Writer, r Reply, proto int) error {
	switch v := r.(type) {
	case Simple:
		return writeLine(w, '+', string(v))
	case Error:
		return writeLine(w, '-', string(v))
	case Integer:
		return writeLine(w, ':', strconv.FormatInt(int64(v), 10))
	case Bulk:
		return writeBulk(w, v)
	case nilReply:
		if proto >= V3 {
			_, err := w.WriteString("_\r\n")
			return err
		}
		_, err := w.WriteString("$-1\r\n")
		return err
	case nilArray:
		if proto >= V3 {
			_, err := w.WriteString("_\r\n")
			return err
		}
		_, err := w.WriteString("*-1\r\n")
		return err
	case Array:
		return writeAggregate(w, '*', []Reply(v), len(v), proto)
	case Map:
		if proto >= V3 {
			return writeAggregate(w, '%', []Reply(v), len(v)/2, proto)
		}
		return writeAggregate(w, '*', []Reply(v), len(v), proto)
	case Set:
		if proto >= V3 {
			return writeAggregate(w, '~', []Reply(v), len(v), proto)
		}
		return writeAggregate(w, '*', []Reply(v), len(v), proto)
	case Push:
		if proto >= V3 {
			return writeAggregate(w, '>', []Reply(v), len(v), proto)
		}
		return writeAggregate(w, '*', []Reply(v), len(v), proto)
	case Double:
		if proto >= V3 {
			return writeLine(w, ',', formatDouble(float64(v)))
		}
		return writeBulk(w, []byte(FormatFloat(float64(v))))
	case Boolean:
		if proto >= V3 {
			if v {
				_, err := w.WriteString("#t\r\n")
				return err
			}
			_, err := w.WriteString("#f\r\n")
			return err
		}
		if v {
			return writeLine(w, ':', "1")
		}
		return writeLine(w, ':', "0")
	case BigNumber:
		if proto >= V3 {
			return writeLine(w, '(', string(v))
		}
		return writeBulk(w, []byte(v))
	case Verbatim:
		if proto >= V3 {
			return writeVerbatim(w, v)
		}
		return writeBulk(w, v.Payload)
	}
	return writeLine(w, '-', "ERR unknown reply type")
}

func writeLine(w *bufio.Writer, prefix byte, s string) error {
	if err := w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

func writeBulk(w *bufio.Writer, b []byte) error {
	if err := writeLine(w, '$', strconv.Itoa(len(b))); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

func writeAggregate(w *bufio.Writer, prefix byte, items []Reply, n, proto int) error {
	if err := writeLine(w, prefix, strconv.Itoa(n)); err != nil {
		return err
	}
	for _, item := range items {
		if err := Write(w, item, proto); err != nil {
			return err
		}
	}
	return nil
}

func writeVerbatim(w *bufio.Writer, v Verbatim) error {
	format := v.Format
	if len(format) != 3 {
		format = "txt"
	}
	if err := writeLine(w, '=', strconv.Itoa(len(v.Payload)+4)); err != nil {
		return err
	}
	if _, err := w.WriteString(format); err != nil {
		return err
	}
	if err := w.WriteByte(':'); err != nil {
		return err
	}
	if _, err := w.Write(v.Payload); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

// formatDouble renders the RESP3 double frame payload.
func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
