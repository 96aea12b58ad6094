package storage

import (
	"sort"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/pkg/glob"
)

func init() {
	register(&Command{Name: "command", Arity: -1, Run: commandCmd})
}

// commandEntry renders one command descriptor for the COMMAND reply.
func commandEntry(cmd *Command) resp.Reply {
	var flags resp.Array
	if cmd.Write {
		flags = append(flags, resp.Simple("write"))
	} else {
		flags = append(flags, resp.Simple("readonly"))
	}
	if cmd.Admin {
		flags = append(flags, resp.Simple("admin"))
	}

	first, last, step := cmd.Keys.firstLastStep()
	return resp.Array{
		resp.BulkString(cmd.Name),
		resp.Integer(int64(cmd.Arity)),
		flags,
		resp.Integer(int64(first)),
		resp.Integer(int64(last)),
		resp.Integer(int64(step)),
	}
}

func sortedCommandNames() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func commandCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) == 0 {
		out := make(resp.Array, 0, len(commandTable))
		for _, name := range sortedCommandNames() {
			out = append(out, commandEntry(commandTable[name]))
		}
		return reply(c, out)
	}

	switch {
	case argMatch(args[0], "COUNT"):
		if len(args) != 1 {
			return reply(c, errUnknownSubcommand(string(args[0]), "COMMAND"))
		}
		return reply(c, resp.Integer(int64(len(commandTable))))

	case argMatch(args[0], "LIST"):
		var pattern []byte
		switch len(args) {
		case 1:
		case 4:
			if !argMatch(args[1], "FILTERBY") || !argMatch(args[2], "PATTERN") {
				return reply(c, errSyntax)
			}
			pattern = args[3]
		default:
			return reply(c, errSyntax)
		}

		var out resp.Array
		for _, name := range sortedCommandNames() {
			if pattern != nil && !glob.Match([]byte(name), pattern) {
				continue
			}
			out = append(out, resp.BulkString(name))
		}
		if out == nil {
			out = resp.Array{}
		}
		return reply(c, out)

	case argMatch(args[0], "GETKEYS"):
		if len(args) < 2 {
			return reply(c, resp.Error("ERR Unknown subcommand or wrong number of arguments for 'GETKEYS'. Try COMMAND HELP."))
		}
		cmd, ok := commandTable[lowerName(args[1])]
		if !ok {
			return reply(c, resp.Error("ERR Invalid command specified"))
		}
		if !cmd.checkArity(len(args) - 1) {
			return reply(c, resp.Error("ERR Invalid number of arguments specified for command"))
		}
		keys := cmd.Keys.extract(args[2:])
		if len(keys) == 0 {
			return reply(c, resp.Error("ERR The command has no key arguments"))
		}
		out := make(resp.Array, 0, len(keys))
		for _, key := range keys {
			out = append(out, resp.Bulk(key))
		}
		return reply(c, out)

	case argMatch(args[0], "HELP"):
		return reply(c, resp.Verbatim{Format: "txt", Payload: []byte(
			"COMMAND <subcommand> [<arg> [value] [opt] ...]. Subcommands are:\n" +
				"(no subcommand)\n" +
				"    Return details about all commands.\n" +
				"COUNT\n" +
				"    Return the total number of commands in this server.\n" +
				"LIST [FILTERBY PATTERN <pattern>]\n" +
				"    Return the command names, optionally filtered.\n" +
				"GETKEYS <full-command>\n" +
				"    Return the keys from a full command.\n" +
				"HELP\n" +
				"    Print this help.")})
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "COMMAND"))
}
