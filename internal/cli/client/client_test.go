package client

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fakeServer answers every command with the canned replies, in order.
func fakeServer(t *testing.T, replies []string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		for _, reply := range replies {
			// Consume one command: an array header plus a length line
			// and a payload line per argument.
			header, err := br.ReadString('\n')
			if err != nil {
				return
			}
			n, err := strconv.Atoi(strings.TrimSpace(header[1:]))
			if err != nil {
				return
			}
			for i := 0; i < n*2; i++ {
				if _, err := br.ReadString('\n'); err != nil {
					return
				}
			}
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
	}()

	return ln.Addr().String()
}

func TestDo(t *testing.T) {
	addr := fakeServer(t, []string{
		"+PONG\r\n",
		":42\r\n",
		"$5\r\nhello\r\n",
		"$-1\r\n",
		"-ERR boom\r\n",
		"*2\r\n$1\r\na\r\n:1\r\n",
	})

	c, err := Dial(addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if r, err := c.Do("PING"); err != nil || r.Kind != "simple" || r.Text != "PONG" {
		t.Fatalf("PING = %+v, %v", r, err)
	}
	if r, _ := c.Do("DBSIZE"); r.Kind != "integer" || r.Integer != 42 {
		t.Fatalf("integer = %+v", r)
	}
	if r, _ := c.Do("GET", "k"); r.Kind != "bulk" || r.Text != "hello" {
		t.Fatalf("bulk = %+v", r)
	}
	if r, _ := c.Do("GET", "missing"); r.Kind != "nil" {
		t.Fatalf("nil = %+v", r)
	}
	if r, _ := c.Do("BOOM"); r.Kind != "error" || r.Text != "ERR boom" {
		t.Fatalf("error = %+v", r)
	}
	r, _ := c.Do("LRANGE", "l", "0", "-1")
	if r.Kind != "array" || len(r.Items) != 2 || r.Items[0].Text != "a" {
		t.Fatalf("array = %+v", r)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		reply Reply
		want  string
	}{
		{"simple", Reply{Kind: "simple", Text: "OK"}, "OK"},
		{"integer", Reply{Kind: "integer", Integer: 3}, "(integer) 3"},
		{"bulk", Reply{Kind: "bulk", Text: "hi"}, `"hi"`},
		{"nil", Reply{Kind: "nil"}, "(nil)"},
		{"error", Reply{Kind: "error", Text: "ERR x"}, "(error) ERR x"},
		{"empty array", Reply{Kind: "array"}, "(empty array)"},
		{"array", Reply{Kind: "array", Items: []Reply{
			{Kind: "bulk", Text: "a"},
			{Kind: "integer", Integer: 1},
		}}, "1) \"a\"\n2) (integer) 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.reply); got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}
