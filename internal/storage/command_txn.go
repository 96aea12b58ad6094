package storage

import (
	"github.com/braddunbar/bradis/internal/resp"
)

func init() {
	register(&Command{Name: "multi", Arity: 1, Run: multiCmd})
	register(&Command{Name: "exec", Arity: 1, Run: execCmd})
	register(&Command{Name: "discard", Arity: 1, Run: discardCmd})
	register(&Command{Name: "watch", Arity: -2, Run: watchCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "unwatch", Arity: 1, Run: unwatchCmd})
}

func multiCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if c.inMulti {
		return reply(c, resp.Error("ERR MULTI calls can not be nested"))
	}
	c.inMulti = true
	c.multiError = false
	c.queued = nil
	return reply(c, resp.OK)
}

func execCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if !c.inMulti {
		return reply(c, errExecNoMulti)
	}

	queued := c.queued
	aborted := c.multiError
	dirty := s.watching.isDirty(c.ID)
	c.inMulti = false
	c.multiError = false
	c.queued = nil
	s.watching.remove(c.ID)

	if aborted {
		return reply(c, errExecAbort)
	}
	if dirty {
		return reply(c, resp.NilArray)
	}

	// Run the queue collecting each command's reply into one array.
	c.collecting = true
	c.collected = nil
	c.inExec = true
	for _, cmdArgs := range queued {
		name := lowerName(cmdArgs[0])
		cmd := commandTable[name]
		if intent := cmd.Run(s, c, cmdArgs[1:]); intent != nil {
			// Blocking variants degrade to their empty reply here.
			c.push(intent.emptyReply)
		}
	}
	c.inExec = false
	c.collecting = false

	out := resp.Array(c.collected)
	c.collected = nil
	return reply(c, out)
}

func discardCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if !c.inMulti {
		return reply(c, resp.Error("ERR DISCARD without MULTI"))
	}
	c.inMulti = false
	c.multiError = false
	c.queued = nil
	s.watching.remove(c.ID)
	return reply(c, resp.OK)
}

func watchCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if c.inMulti {
		return reply(c, errWatchInMulti)
	}
	for _, key := range args {
		s.watching.add(c.ID, dbKey{c.db, string(key)})
	}
	return reply(c, resp.OK)
}

func unwatchCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	s.watching.remove(c.ID)
	return reply(c, resp.OK)
}
