// Package command provides CLI command definitions for bradis-cli.
//
// It uses urfave/cli/v2 for command parsing and supports both
// single-command mode and an interactive prompt.
package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/braddunbar/bradis/internal/cli/client"
	"github.com/braddunbar/bradis/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "bradis-cli",
		Usage:   "bradis command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			sendCommand(),
			pingCommand(),
			interactiveCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "bradis server address",
			EnvVars: []string{"BRADIS_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "connect timeout",
			Value: 5 * time.Second,
		},
	}
}

func dial(c *cli.Context) (*client.Client, error) {
	return client.Dial(c.String("server"), c.Duration("timeout"))
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a single command and print the reply",
		ArgsUsage: "COMMAND [ARG ...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("send requires a command", 2)
			}
			conn, err := dial(c)
			if err != nil {
				return err
			}
			defer conn.Close()

			reply, err := conn.Do(c.Args().Slice()...)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, client.Render(reply))
			if reply.Kind == "error" {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check connectivity",
		Action: func(c *cli.Context) error {
			conn, err := dial(c)
			if err != nil {
				return err
			}
			defer conn.Close()

			reply, err := conn.Do("PING")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, client.Render(reply))
			return nil
		},
	}
}

func interactiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "interactive",
		Usage: "Open an interactive prompt",
		Action: func(c *cli.Context) error {
			conn, err := dial(c)
			if err != nil {
				return err
			}
			defer conn.Close()

			scanner := bufio.NewScanner(os.Stdin)
			addr := c.String("server")
			for {
				fmt.Fprintf(c.App.Writer, "%s> ", addr)
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
					return nil
				}

				reply, err := conn.Do(strings.Fields(line)...)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, client.Render(reply))
			}
		},
	}
}
