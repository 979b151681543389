/*
 * Copyright (c) 2026 Sharknado Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package client implements the interactive TCP client entered with
--connect. It parses a sharknado:// URI, authenticates, and runs a
readline REPL that forwards each line to the server and prints the
single-line response.
*/
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"sharknado/pkg/cli"
)

// connectTimeout bounds the initial TCP dial.
const connectTimeout = 5 * time.Second

// completions are offered for tab completion in the REPL.
var completions = []string{
	"LOGIN", "LOGOUT", "SET", "GET", "UPDATE", "DELETE", "QUERY",
	"WHOAMI", "HELP", "EXIT",
}

// Run connects to the server named by rawURI, authenticates with the
// credentials embedded in it, and enters the interactive loop.
func Run(rawURI string) error {
	uri, err := ParseURI(rawURI)
	if err != nil {
		return err
	}

	cli.PrintInfo("Connecting to Sharknado at %s as %s", uri.Addr(), uri.Username)
	if uri.Database != "" {
		cli.PrintInfo("Database: %s", uri.Database)
	}

	conn, err := net.DialTimeout("tcp", uri.Addr(), connectTimeout)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// The server greets each connection with a one-line welcome.
	welcome, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read server greeting: %w", err)
	}
	fmt.Print(welcome)

	// Authenticate with the URI credentials.
	resp, err := roundTrip(conn, reader, fmt.Sprintf("LOGIN %s %s", uri.Username, uri.Password))
	if err != nil {
		return err
	}
	fmt.Print(resp)
	if !strings.HasPrefix(resp, "OK:") {
		return fmt.Errorf("authentication failed")
	}

	cli.PrintSuccess("Authenticated. Type 'exit' to disconnect.")
	return repl(conn, reader)
}

// roundTrip sends one command line and reads the one-line response.
func roundTrip(conn net.Conn, reader *bufio.Reader, command string) (string, error) {
	if _, err := fmt.Fprintf(conn, "%s\n", command); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	resp, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

// repl reads commands from the user and relays them to the server
// until exit or disconnect.
func repl(conn net.Conn, reader *bufio.Reader) error {
	items := make([]readline.PrefixCompleterInterface, 0, len(completions))
	for _, c := range completions {
		items = append(items, readline.PcItem(c))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cli.Info("sharknado") + cli.Dimmed(">") + " ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			line = "exit"
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.EqualFold(line, "exit") {
			resp, err := roundTrip(conn, reader, "EXIT")
			if err == nil {
				fmt.Print(resp)
			}
			fmt.Println("Disconnected from Sharknado.")
			return nil
		}

		resp, err := roundTrip(conn, reader, line)
		if err != nil {
			cli.PrintError("Connection lost: %v", err)
			return err
		}
		fmt.Print(resp)
	}
}
