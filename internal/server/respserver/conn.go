package respserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage"
)

// conn is one client connection: a reader goroutine feeding the store and a
// writer goroutine draining the client's outbox.
type conn struct {
	id      uint64
	server  *Server
	netConn net.Conn
	reader  *resp.Reader
	client  *storage.Client
	closed  atomic.Bool
}

func (s *Server) newConn(netConn net.Conn) *conn {
	id := s.nextID.Add(1)
	client := storage.NewClient(id, remoteAddr(netConn), localAddr(netConn))

	c := &conn{
		id:      id,
		server:  s,
		netConn: netConn,
		reader:  resp.NewReader(netConn, s.store.ReaderConfig()),
		client:  client,
	}
	// Asking the client to quit just seals the outbox; the writer closes
	// the socket once the queue drains.
	client.CloseConn = client.Outbox().Close
	return c
}

func remoteAddr(c net.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func localAddr(c net.Conn) string {
	if addr := c.LocalAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// remoteIP strips the port for rate limiting.
func (c *conn) remoteIP() string {
	host, _, err := net.SplitHostPort(c.client.Addr)
	if err != nil {
		return c.client.Addr
	}
	return host
}

// close shuts the socket down, once.
func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.netConn.Close()
	}
}

// serve runs the connection to completion.
func (c *conn) serve() {
	s := c.server
	s.store.Connect(c.client)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()

	// Reader is done: tear down. The executor seals the outbox, which
	// stops the writer; closing the socket covers the case where the
	// writer is mid-write.
	s.store.Disconnect(c.id)
	<-writerDone
	c.close()
}

func (c *conn) readLoop() {
	s := c.server
	cfg := s.cfg

	for {
		// Between commands only the idle timeout applies.
		if cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout)); err != nil {
				return
			}
		}
		if err := c.reader.Peek(); err != nil {
			c.logReadError(err)
			return
		}

		// The command has started; tighten to the read timeout.
		if cfg.ReadTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
				return
			}
		}

		args, err := c.reader.ReadCommand()
		if err != nil {
			var pe *resp.ProtocolError
			if errors.As(err, &pe) {
				c.client.Outbox().Push(resp.Error(pe.Message))
				if !pe.Fatal {
					continue
				}
				return
			}
			c.logReadError(err)
			return
		}
		if len(args) == 0 {
			continue
		}

		if !s.allow(c.remoteIP()) {
			c.client.Outbox().Push(resp.Error("ERR rate limit exceeded"))
			continue
		}

		s.store.Ready(c.client, args)
	}
}

func (c *conn) logReadError(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.server.logger.Debug("connection timed out", "remote", c.client.Addr)
		return
	}
	c.server.logger.Debug("connection read error", "remote", c.client.Addr, "error", err)
}

// writeLoop serializes outbox replies in order, batching flushes. It owns
// the socket teardown for graceful quits.
func (c *conn) writeLoop() {
	bw := bufio.NewWriter(c.netConn)
	out := c.client.Outbox()
	cfg := c.server.cfg

	for {
		r, ok := out.Next()
		if !ok {
			_ = bw.Flush()
			c.close()
			return
		}

		if cfg.WriteTimeout > 0 {
			if err := c.netConn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
				c.close()
				return
			}
		}
		if err := resp.Write(bw, r, c.client.Proto()); err != nil {
			c.close()
			return
		}

		// Batch any backlog before flushing.
		for {
			next, more := out.TryNext()
			if !more {
				break
			}
			if err := resp.Write(bw, next, c.client.Proto()); err != nil {
				c.close()
				return
			}
		}
		if err := bw.Flush(); err != nil {
			c.close()
			return
		}
	}
}
