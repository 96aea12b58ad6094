package storage

import (
	"strings"

	"github.com/braddunbar/bradis/internal/resp"
)

// keySpecKind describes where a command's keys sit in its arguments.
type keySpecKind int

const (
	keysNone keySpecKind = iota
	keysAll
	keysSingle
	keysDouble
	keysOdd
	keysSkipOne
	keysTrailing
	keysArgument
)

// keySpec locates key arguments for COMMAND GETKEYS and introspection.
type keySpec struct {
	kind keySpecKind
	arg  int
}

// firstLastStep renders the COMMAND reply triple.
func (k keySpec) firstLastStep() (int, int, int) {
	switch k.kind {
	case keysAll:
		return 1, -1, 1
	case keysSingle:
		return 1, 1, 1
	case keysDouble:
		return 1, 2, 1
	case keysOdd:
		return 1, -1, 2
	case keysSkipOne:
		return 2, -1, 1
	case keysTrailing:
		return 1, -2, 1
	default:
		return 0, 0, 0
	}
}

// extract returns the key arguments of args (which excludes the command
// name).
func (k keySpec) extract(args [][]byte) [][]byte {
	switch k.kind {
	case keysAll:
		return args
	case keysSingle:
		if len(args) >= 1 {
			return args[:1]
		}
	case keysDouble:
		if len(args) >= 2 {
			return args[:2]
		}
	case keysOdd:
		var out [][]byte
		for i := 0; i < len(args); i += 2 {
			out = append(out, args[i])
		}
		return out
	case keysSkipOne:
		if len(args) >= 2 {
			return args[1:]
		}
	case keysTrailing:
		if len(args) >= 2 {
			return args[:len(args)-1]
		}
	case keysArgument:
		if len(args) > k.arg {
			return args[k.arg : k.arg+1]
		}
	}
	return nil
}

// runFunc executes a command. args excludes the command name. A non-nil
// return parks the client on keys.
type runFunc func(s *Store, c *Client, args [][]byte) *blockIntent

// Command describes one command in the table.
type Command struct {
	Name string

	// Arity counts the full command line including the name; negative
	// means "at least".
	Arity int

	Run   runFunc
	Keys  keySpec
	Write bool

	// Admin commands are not fed to monitors.
	Admin bool
}

func (cmd *Command) checkArity(n int) bool {
	if cmd.Arity >= 0 {
		return n == cmd.Arity
	}
	return n >= -cmd.Arity
}

// commandTable holds every registered command, keyed by lowercase name.
var commandTable = make(map[string]*Command)

// register adds a command at package init time.
func register(cmd *Command) {
	commandTable[strings.ToLower(cmd.Name)] = cmd
}

// reply pushes r and reports that the handler did not block.
func reply(c *Client, r resp.Reply) *blockIntent {
	c.push(r)
	return nil
}
