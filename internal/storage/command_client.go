package storage

import (
	"fmt"
	"strings"

	"github.com/braddunbar/bradis/internal/infra/buildinfo"
	"github.com/braddunbar/bradis/internal/resp"
)

func init() {
	register(&Command{Name: "ping", Arity: -1, Run: pingCmd})
	register(&Command{Name: "echo", Arity: 2, Run: echoCmd})
	register(&Command{Name: "hello", Arity: -1, Run: helloCmd})
	register(&Command{Name: "reset", Arity: 1, Run: resetCmd})
	register(&Command{Name: "quit", Arity: -1, Run: quitCmd})
	register(&Command{Name: "client", Arity: -2, Run: clientCmd, Admin: true})
	register(&Command{Name: "monitor", Arity: 1, Run: monitorCmd, Admin: true})
}

func pingCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) > 1 {
		return reply(c, errArity("ping"))
	}

	// Under subscriber mode the reply is a two element array.
	if c.subscriptionCount() > 0 && c.Proto() == resp.V2 {
		msg := []byte("")
		if len(args) == 1 {
			msg = args[0]
		}
		return reply(c, resp.Array{resp.BulkString("pong"), resp.Bulk(msg)})
	}

	if len(args) == 1 {
		return reply(c, resp.Bulk(args[0]))
	}
	return reply(c, resp.Simple("PONG"))
}

func echoCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, resp.Bulk(args[0]))
}

// validClientName accepts printable bytes only.
func validClientName(name []byte) bool {
	for _, b := range name {
		if b < '!' || b > '~' {
			return false
		}
	}
	return true
}

func helloCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	version := int64(c.Proto())
	if len(args) > 0 {
		n, ok := argInt(args[0])
		if !ok || (n != 2 && n != 3) {
			return reply(c, errNoProto)
		}
		version = n
	}

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "SETNAME"):
			if i+1 >= len(rest) {
				return reply(c, errSyntax)
			}
			if !validClientName(rest[i+1]) {
				return reply(c, errClientName)
			}
			c.name = append([]byte(nil), rest[i+1]...)
			i++
		default:
			return reply(c, resp.Error(fmt.Sprintf(
				"ERR unknown argument '%s' to HELLO", rest[i])))
		}
	}

	c.proto.Store(int32(version))
	return reply(c, resp.Map{
		resp.BulkString("server"), resp.BulkString("bradis"),
		resp.BulkString("version"), resp.BulkString(buildinfo.Version()),
		resp.BulkString("proto"), resp.Integer(version),
		resp.BulkString("id"), resp.Integer(int64(c.ID)),
	})
}

func resetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	s.resetClient(c)
	c.pushAlways(resp.Simple("RESET"))
	return nil
}

func quitCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	c.push(resp.OK)
	if c.CloseConn != nil {
		c.CloseConn()
	}
	return nil
}

func monitorCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	c.monitor = true
	s.monitors[c.ID] = c
	return reply(c, resp.OK)
}

// clientInfoLine renders the CLIENT LIST/INFO fields for one client.
func clientInfoLine(c *Client) string {
	lastCmd := c.lastCmd
	if lastCmd == "" {
		lastCmd = "NULL"
	}
	return fmt.Sprintf(
		"id=%d name=%s addr=%s laddr=%s db=%d sub=%d psub=%d multi=%d flags=%s cmd=%s resp=%d",
		c.ID, c.name, c.Addr, c.LAddr, c.db,
		len(c.channels), len(c.patterns), multiCount(c), c.flags(), lastCmd, c.Proto())
}

func multiCount(c *Client) int {
	if !c.inMulti {
		return -1
	}
	return len(c.queued)
}

func clientCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	switch {
	case argMatch(args[0], "ID"):
		return reply(c, resp.Integer(int64(c.ID)))

	case argMatch(args[0], "GETNAME"):
		return reply(c, resp.Bulk(c.name))

	case argMatch(args[0], "SETNAME"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "CLIENT"))
		}
		if !validClientName(args[1]) {
			return reply(c, errClientName)
		}
		if len(args[1]) == 0 {
			c.name = nil
		} else {
			c.name = append([]byte(nil), args[1]...)
		}
		return reply(c, resp.OK)

	case argMatch(args[0], "INFO"):
		return reply(c, resp.BulkString(clientInfoLine(c)))

	case argMatch(args[0], "LIST"):
		var lines []string
		for _, id := range s.order {
			lines = append(lines, clientInfoLine(s.clients[id]))
		}
		return reply(c, resp.BulkString(strings.Join(lines, "\n")+"\n"))

	case argMatch(args[0], "REPLY"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "CLIENT"))
		}
		switch {
		case argMatch(args[1], "ON"):
			c.replyMode = replyOn
			c.skipNext = false
			// ON acknowledges even when replies were off.
			c.suppressed = false
			return reply(c, resp.OK)
		case argMatch(args[1], "OFF"):
			c.replyMode = replyOff
			return nil
		case argMatch(args[1], "SKIP"):
			if c.replyMode != replyOff {
				c.skipNext = true
			}
			return nil
		}
		return reply(c, errSyntax)

	case argMatch(args[0], "UNBLOCK"):
		if len(args) != 2 && len(args) != 3 {
			return reply(c, errUnknownSubcommand(string(args[0]), "CLIENT"))
		}
		id, ok := argInt(args[1])
		if !ok {
			return reply(c, errNotInteger)
		}
		withError := false
		if len(args) == 3 {
			switch {
			case argMatch(args[2], "TIMEOUT"):
			case argMatch(args[2], "ERROR"):
				withError = true
			default:
				return reply(c, errSyntax)
			}
		}
		if s.unblockClient(uint64(id), withError) {
			return reply(c, resp.Integer(1))
		}
		return reply(c, resp.Integer(0))

	case argMatch(args[0], "KILL"):
		return clientKill(s, c, args[1:])

	case argMatch(args[0], "NO-EVICT"):
		if len(args) != 2 || (!argMatch(args[1], "ON") && !argMatch(args[1], "OFF")) {
			return reply(c, errUnknownSubcommand(string(args[0]), "CLIENT"))
		}
		return reply(c, resp.OK)

	case argMatch(args[0], "HELP"):
		return reply(c, resp.Verbatim{Format: "txt", Payload: []byte(
			"CLIENT <subcommand> [<arg> [value] [opt] ...]. Subcommands are:\n" +
				"ID\nGETNAME\nSETNAME <name>\nINFO\nLIST\nREPLY <ON|OFF|SKIP>\n" +
				"UNBLOCK <id> [TIMEOUT|ERROR]\nKILL <filters>\nNO-EVICT <ON|OFF>\nHELP")})
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "CLIENT"))
}

// clientKill supports the legacy addr form and the ID/ADDR/LADDR/SKIPME
// filter form.
func clientKill(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) == 0 {
		return reply(c, errUnknownSubcommand("KILL", "CLIENT"))
	}

	var (
		addr, laddr string
		id          uint64
		hasID       bool
		skipme      = true
		legacy      = len(args) == 1
	)

	if legacy {
		addr = string(args[0])
	} else {
		for i := 0; i < len(args); i += 2 {
			if i+1 >= len(args) {
				return reply(c, errSyntax)
			}
			switch {
			case argMatch(args[i], "ID"):
				n, ok := argInt(args[i+1])
				if !ok || n < 0 {
					return reply(c, resp.Error("ERR client-id should be greater than 0"))
				}
				id = uint64(n)
				hasID = true
			case argMatch(args[i], "ADDR"):
				addr = string(args[i+1])
			case argMatch(args[i], "LADDR"):
				laddr = string(args[i+1])
			case argMatch(args[i], "SKIPME"):
				switch {
				case argMatch(args[i+1], "yes"):
					skipme = true
				case argMatch(args[i+1], "no"):
					skipme = false
				default:
					return reply(c, errSyntax)
				}
			default:
				return reply(c, errSyntax)
			}
		}
	}

	killed := 0
	for _, other := range s.clients {
		if hasID && other.ID != id {
			continue
		}
		if addr != "" && other.Addr != addr {
			continue
		}
		if laddr != "" && other.LAddr != laddr {
			continue
		}
		if skipme && other.ID == c.ID {
			continue
		}
		if other.CloseConn != nil {
			other.CloseConn()
		}
		killed++
	}

	if legacy {
		if killed > 0 {
			return reply(c, resp.OK)
		}
		return reply(c, resp.Error("ERR No such client address in the client list"))
	}
	return reply(c, resp.Integer(int64(killed)))
}
