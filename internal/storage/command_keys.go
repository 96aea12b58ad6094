package storage

import (
	"math/rand"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/pkg/glob"
)

func init() {
	register(&Command{Name: "del", Arity: -2, Run: delCmd, Keys: keySpec{kind: keysAll}, Write: true})
	register(&Command{Name: "unlink", Arity: -2, Run: unlinkCmd, Keys: keySpec{kind: keysAll}, Write: true})
	register(&Command{Name: "exists", Arity: -2, Run: existsCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "touch", Arity: -2, Run: touchCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "type", Arity: 2, Run: typeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "keys", Arity: 2, Run: keysCmd})
	register(&Command{Name: "scan", Arity: -2, Run: scanCmd})
	register(&Command{Name: "randomkey", Arity: 1, Run: randomkeyCmd})
	register(&Command{Name: "rename", Arity: 3, Run: renameCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "renamenx", Arity: 3, Run: renamenxCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "dbsize", Arity: 1, Run: dbsizeCmd})
	register(&Command{Name: "object", Arity: -2, Run: objectCmd, Keys: keySpec{kind: keysArgument, arg: 1}})
	register(&Command{Name: "lolwut", Arity: -1, Run: lolwutCmd})
	register(&Command{Name: "debug", Arity: -2, Run: debugCmd, Admin: true})
	register(&Command{Name: "shutdown", Arity: -1, Run: shutdownCmd, Admin: true})
}

// deleteKeys removes keys, lazily when requested.
func deleteKeys(s *Store, c *Client, keys [][]byte, lazy bool) *blockIntent {
	removed := 0
	for _, keyRaw := range keys {
		key := string(keyRaw)
		if s.deleteKey(c.db, key, lazy) {
			removed++
			s.noteWrite(c.db, key, 1)
		}
	}
	return reply(c, resp.Integer(int64(removed)))
}

func delCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return deleteKeys(s, c, args, s.limits.LazyUserDel)
}

func unlinkCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return deleteKeys(s, c, args, true)
}

func existsCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	count := 0
	for _, key := range args {
		if s.exists(c.db, string(key)) {
			count++
		}
	}
	return reply(c, resp.Integer(int64(count)))
}

func touchCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return existsCmd(s, c, args)
}

func typeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	v, ok := s.lookup(c.db, string(args[0]))
	if !ok {
		return reply(c, resp.Simple("none"))
	}
	return reply(c, resp.Simple(v.TypeName()))
}

func keysCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	pattern := args[0]
	var out resp.Array
	for key := range s.dbs[c.db].objects {
		if s.dbs[c.db].isExpired(key) {
			continue
		}
		if glob.Match([]byte(key), pattern) {
			out = append(out, resp.BulkString(key))
		}
	}
	if out == nil {
		out = resp.Array{}
	}
	return reply(c, out)
}

// scanCmd iterates the whole keyspace in one pass: the cursor contract only
// promises that a full iteration visits every stable key, which a single
// complete sweep satisfies.
func scanCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	cursor, ok := argInt(args[0])
	if !ok || cursor < 0 {
		return reply(c, resp.Error("ERR invalid cursor"))
	}

	var pattern []byte
	var typeName string
	rest := args[1:]
	for i := 0; i < len(rest); i += 2 {
		if i+1 >= len(rest) {
			return reply(c, errSyntax)
		}
		switch {
		case argMatch(rest[i], "MATCH"):
			pattern = rest[i+1]
		case argMatch(rest[i], "COUNT"):
			if n, ok := argInt(rest[i+1]); !ok || n <= 0 {
				return reply(c, errSyntax)
			}
		case argMatch(rest[i], "TYPE"):
			typeName = string(rest[i+1])
		default:
			return reply(c, errSyntax)
		}
	}

	var keys resp.Array
	if cursor == 0 {
		for key, v := range s.dbs[c.db].objects {
			if s.dbs[c.db].isExpired(key) {
				continue
			}
			if pattern != nil && !glob.Match([]byte(key), pattern) {
				continue
			}
			if typeName != "" && v.TypeName() != typeName {
				continue
			}
			keys = append(keys, resp.BulkString(key))
		}
	}
	if keys == nil {
		keys = resp.Array{}
	}
	return reply(c, resp.Array{resp.BulkString("0"), keys})
}

func randomkeyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	d := s.dbs[c.db]
	var live []string
	for key := range d.objects {
		if !d.isExpired(key) {
			live = append(live, key)
		}
	}
	if len(live) == 0 {
		return reply(c, resp.Nil)
	}
	return reply(c, resp.BulkString(live[rand.Intn(len(live))]))
}

// renameKey moves src to dst within the client's database, carrying the
// TTL. nx makes it conditional on dst being absent.
func renameKey(s *Store, c *Client, src, dst string, nx bool) resp.Reply {
	v, ok := s.lookup(c.db, src)
	if !ok {
		return errNoSuchKey
	}
	if src == dst {
		if nx {
			return resp.Integer(0)
		}
		return resp.OK
	}
	if nx && s.exists(c.db, dst) {
		return resp.Integer(0)
	}

	d := s.dbs[c.db]
	ttl, hasTTL := d.expires[src]
	if old, existed := d.objects[dst]; existed {
		s.reclaim.drop(old, s.limits.LazyUserDel)
	}
	delete(d.objects, src)
	delete(d.expires, src)
	d.objects[dst] = v
	if hasTTL {
		d.expires[dst] = ttl
	} else {
		delete(d.expires, dst)
	}

	s.noteWrite(c.db, src, 1)
	s.noteWrite(c.db, dst, 1)
	if nx {
		return resp.Integer(1)
	}
	return resp.OK
}

func renameCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, renameKey(s, c, string(args[0]), string(args[1]), false))
}

func renamenxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, renameKey(s, c, string(args[0]), string(args[1]), true))
}

func dbsizeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	d := s.dbs[c.db]
	count := 0
	for key := range d.objects {
		if !d.isExpired(key) {
			count++
		}
	}
	return reply(c, resp.Integer(int64(count)))
}

func objectCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	switch {
	case argMatch(args[0], "ENCODING"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "OBJECT"))
		}
		v, ok := s.lookup(c.db, string(args[1]))
		if !ok {
			return reply(c, errNoSuchKey)
		}
		return reply(c, resp.BulkString(v.Encoding()))
	case argMatch(args[0], "REFCOUNT"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "OBJECT"))
		}
		if _, ok := s.lookup(c.db, string(args[1])); !ok {
			return reply(c, errNoSuchKey)
		}
		return reply(c, resp.Integer(1))
	case argMatch(args[0], "HELP"):
		return reply(c, resp.Verbatim{Format: "txt", Payload: []byte(
			"OBJECT <subcommand> [<arg> [value] [opt] ...]. Subcommands are:\n" +
				"ENCODING <key>\n" +
				"    Return the kind of internal representation used in order to store the\n" +
				"    value associated with <key>.\n" +
				"REFCOUNT <key>\n" +
				"    Return the number of references of the value associated with <key>.\n" +
				"HELP\n" +
				"    Print this help.")})
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "OBJECT"))
}

func lolwutCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, resp.BulkString("bradis ver. when you are ready\n"))
}

func debugCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	switch {
	case argMatch(args[0], "JMAP"):
		return reply(c, resp.OK)
	case argMatch(args[0], "SLEEP"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "DEBUG"))
		}
		seconds, ok := argFloat(args[1])
		if !ok || seconds < 0 {
			return reply(c, errNotFloat)
		}
		// Deliberately stalls the executor; that is the point of the
		// subcommand.
		time.Sleep(time.Duration(seconds * float64(time.Second)))
		return reply(c, resp.OK)
	case argMatch(args[0], "SET-ACTIVE-EXPIRE"),
		argMatch(args[0], "QUICKLIST-PACKED-THRESHOLD"),
		argMatch(args[0], "STRINGMATCH-LEN"),
		argMatch(args[0], "LISTPACK"):
		return reply(c, resp.OK)
	case argMatch(args[0], "OBJECT"):
		if len(args) != 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "DEBUG"))
		}
		v, ok := s.lookup(c.db, string(args[1]))
		if !ok {
			return reply(c, errNoSuchKey)
		}
		return reply(c, resp.Simple("Value at:0 refcount:1 encoding:"+v.Encoding()))
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "DEBUG"))
}

func shutdownCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) == 1 && !argMatch(args[0], "NOSAVE") && !argMatch(args[0], "SAVE") {
		return reply(c, errSyntax)
	}
	s.logger.Info("shutdown requested", "client", c.ID)
	for _, other := range s.clients {
		if other.CloseConn != nil {
			other.CloseConn()
		}
	}
	return nil
}
