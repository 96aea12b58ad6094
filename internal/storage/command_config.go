package storage

import (
	"sort"
	"strconv"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/pkg/glob"
)

func init() {
	register(&Command{Name: "config", Arity: -2, Run: configCmd, Admin: true})
}

// configParam is one runtime parameter with its getter and setter.
type configParam struct {
	name string
	get  func(s *Store) resp.Reply
	set  func(s *Store, raw []byte) resp.Reply
}

// memoryValue parses an integer with optional memory suffix: lower `k` is
// 1000, `kb` is 1024, and likewise for m/mb and g/gb.
func memoryValue(raw []byte) (int64, bool) {
	n := len(raw)
	unit := int64(1)
	digits := raw

	lower := func(b byte) byte {
		if b >= 'A' && b <= 'Z' {
			return b + ('a' - 'A')
		}
		return b
	}

	if n >= 2 && lower(raw[n-1]) == 'b' {
		switch lower(raw[n-2]) {
		case 'k':
			unit, digits = 1024, raw[:n-2]
		case 'm':
			unit, digits = 1024*1024, raw[:n-2]
		case 'g':
			unit, digits = 1024*1024*1024, raw[:n-2]
		}
	} else if n >= 1 {
		switch lower(raw[n-1]) {
		case 'k':
			unit, digits = 1000, raw[:n-1]
		case 'm':
			unit, digits = 1000*1000, raw[:n-1]
		case 'g':
			unit, digits = 1000*1000*1000, raw[:n-1]
		}
	}

	v, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v * unit, true
}

func yesNo(raw []byte) (bool, bool) {
	switch {
	case argMatch(raw, "yes"):
		return true, true
	case argMatch(raw, "no"):
		return false, true
	}
	return false, false
}

func yesNoReply(v bool) resp.Reply {
	if v {
		return resp.BulkString("yes")
	}
	return resp.BulkString("no")
}

// intParam builds a get/set pair over an int field.
func intParam(name string, get func(s *Store) int64, set func(s *Store, v int64)) configParam {
	return configParam{
		name: name,
		get: func(s *Store) resp.Reply {
			return resp.BulkInt(get(s))
		},
		set: func(s *Store, raw []byte) resp.Reply {
			v, ok := memoryValue(raw)
			if !ok {
				return resp.Error("ERR argument couldn't be parsed into an integer")
			}
			set(s, v)
			return nil
		},
	}
}

func boolParam(name string, get func(s *Store) bool, set func(s *Store, v bool)) configParam {
	return configParam{
		name: name,
		get: func(s *Store) resp.Reply {
			return yesNoReply(get(s))
		},
		set: func(s *Store, raw []byte) resp.Reply {
			v, ok := yesNo(raw)
			if !ok {
				return resp.Error("ERR argument must be 'yes' or 'no'")
			}
			set(s, v)
			return nil
		},
	}
}

// configParams maps every parameter name, aliases included, to its
// accessor pair. Aliased names share accessors so they read and write the
// same value.
var configParams = map[string]configParam{}

func registerParam(p configParam, aliases ...string) {
	configParams[p.name] = p
	for _, alias := range aliases {
		aliased := p
		aliased.name = alias
		configParams[alias] = aliased
	}
}

func init() {
	registerParam(intParam("hash-max-listpack-entries",
		func(s *Store) int64 { return int64(s.limits.HashMaxListpackEntries) },
		func(s *Store, v int64) { s.limits.HashMaxListpackEntries = int(v) },
	), "hash-max-ziplist-entries")
	registerParam(intParam("hash-max-listpack-value",
		func(s *Store) int64 { return int64(s.limits.HashMaxListpackValue) },
		func(s *Store, v int64) { s.limits.HashMaxListpackValue = int(v) },
	), "hash-max-ziplist-value")
	registerParam(intParam("zset-max-listpack-entries",
		func(s *Store) int64 { return int64(s.limits.ZSetMaxListpackEntries) },
		func(s *Store, v int64) { s.limits.ZSetMaxListpackEntries = int(v) },
	), "zset-max-ziplist-entries")
	registerParam(intParam("zset-max-listpack-value",
		func(s *Store) int64 { return int64(s.limits.ZSetMaxListpackValue) },
		func(s *Store, v int64) { s.limits.ZSetMaxListpackValue = int(v) },
	), "zset-max-ziplist-value")
	registerParam(intParam("set-max-intset-entries",
		func(s *Store) int64 { return int64(s.limits.SetMaxIntsetEntries) },
		func(s *Store, v int64) { s.limits.SetMaxIntsetEntries = int(v) },
	))
	registerParam(intParam("set-max-listpack-entries",
		func(s *Store) int64 { return int64(s.limits.SetMaxListpackEntries) },
		func(s *Store, v int64) { s.limits.SetMaxListpackEntries = int(v) },
	))
	registerParam(intParam("set-max-listpack-value",
		func(s *Store) int64 { return int64(s.limits.SetMaxListpackValue) },
		func(s *Store, v int64) { s.limits.SetMaxListpackValue = int(v) },
	))
	registerParam(intParam("proto-max-bulk-len",
		func(s *Store) int64 { return s.readerCfg.BlobLimit() },
		func(s *Store, v int64) { s.readerCfg.SetBlobLimit(v) },
	))
	registerParam(intParam("proto-inline-max-size",
		func(s *Store) int64 { return s.readerCfg.InlineLimit() },
		func(s *Store, v int64) { s.readerCfg.SetInlineLimit(v) },
	))
	registerParam(boolParam("lazyfree-lazy-expire",
		func(s *Store) bool { return s.limits.LazyExpire },
		func(s *Store, v bool) { s.limits.LazyExpire = v },
	))
	registerParam(boolParam("lazyfree-lazy-user-del",
		func(s *Store) bool { return s.limits.LazyUserDel },
		func(s *Store, v bool) { s.limits.LazyUserDel = v },
	))
	registerParam(boolParam("lazyfree-lazy-user-flush",
		func(s *Store) bool { return s.limits.LazyUserFlush },
		func(s *Store, v bool) { s.limits.LazyUserFlush = v },
	))

	// The list size is a plain signed integer: negative values select a
	// per-node byte size class.
	registerParam(configParam{
		name: "list-max-listpack-size",
		get: func(s *Store) resp.Reply {
			return resp.BulkInt(s.limits.ListMaxListpackSize)
		},
		set: func(s *Store, raw []byte) resp.Reply {
			v, ok := argInt(raw)
			if !ok {
				return resp.Error("ERR argument couldn't be parsed into an integer")
			}
			s.limits.ListMaxListpackSize = v
			return nil
		},
	}, "list-max-ziplist-size")
}

func configCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	switch {
	case argMatch(args[0], "GET"):
		if len(args) < 2 {
			return reply(c, errUnknownSubcommand(string(args[0]), "CONFIG"))
		}
		seen := make(map[string]bool)
		var names []string
		for _, pattern := range args[1:] {
			for name := range configParams {
				if !seen[name] && glob.MatchFold([]byte(name), pattern) {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
		sort.Strings(names)
		out := make(resp.Map, 0, len(names)*2)
		for _, name := range names {
			out = append(out, resp.BulkString(name))
			out = append(out, configParams[name].get(s))
		}
		return reply(c, out)

	case argMatch(args[0], "SET"):
		if len(args) < 3 || len(args)%2 != 1 {
			return reply(c, errUnknownSubcommand(string(args[0]), "CONFIG"))
		}
		// Validate every name before applying any value.
		for i := 1; i < len(args); i += 2 {
			if _, ok := configParams[lowerName(args[i])]; !ok {
				return reply(c, resp.Error(
					"ERR Unknown option or number of arguments for CONFIG SET - '"+string(args[i])+"'"))
			}
		}
		for i := 1; i < len(args); i += 2 {
			param := configParams[lowerName(args[i])]
			if errReply := param.set(s, args[i+1]); errReply != nil {
				return reply(c, errReply)
			}
		}
		return reply(c, resp.OK)

	case argMatch(args[0], "RESETSTAT"):
		s.numCommands = 0
		s.numConnections = 0
		s.dirty = 0
		s.expiredKeys = 0
		return reply(c, resp.OK)

	case argMatch(args[0], "HELP"):
		return reply(c, resp.Verbatim{Format: "txt", Payload: []byte(
			"CONFIG <subcommand> [<arg> [value] [opt] ...]. Subcommands are:\n" +
				"GET <pattern>\n" +
				"    Return parameters matching the glob-like <pattern> and their values.\n" +
				"SET <directive> <value>\n" +
				"    Set the configuration <directive> to <value>.\n" +
				"RESETSTAT\n" +
				"    Reset statistics reported by the INFO command.\n" +
				"HELP\n" +
				"    Print this help.")})
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "CONFIG"))
}
