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
Package protocol implements the line-oriented wire protocol: the command
parser on the request side and the response framing constants on the
reply side.

Request grammar (one command per line, keywords case-insensitive):

	LOGIN <user> <pass>
	LOGOUT
	SET    <table> <key> <json...>
	GET    <table> <key>
	UPDATE <table> <key> <json...>
	DELETE <table> <key>
	QUERY  <table> <conditions...>
	WHOAMI
	HELP
	EXIT

The JSON payload of SET/UPDATE is the unparsed remainder of the line
after the key, so documents may contain spaces. Responses are single
lines prefixed with "OK: ", "RESULT: ", or "ERROR: ".
*/
package protocol

import (
	"strings"

	"sharknado/internal/document"
	"sharknado/internal/errors"
)

// Response status prefixes.
const (
	StatusOK     = "OK"
	StatusResult = "RESULT"
	StatusError  = "ERROR"
)

// Kind identifies a parsed command variant.
type Kind int

const (
	KindLogin Kind = iota
	KindLogout
	KindSet
	KindGet
	KindUpdate
	KindDelete
	KindQuery
	KindWhoami
	KindHelp
	KindExit
)

// Command is one parsed request line.
type Command struct {
	Kind Kind

	// User and Pass are set for LOGIN.
	User string
	Pass string

	// Table and Key address the target record for data operations.
	Table string
	Key   string

	// Doc is the decoded JSON payload of SET/UPDATE.
	Doc document.Value

	// Query is the raw condition string of QUERY.
	Query string
}

// cutToken splits off the first whitespace-delimited token, returning
// the token and the remainder with leading whitespace stripped.
func cutToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

// Parse tokenizes a single request line into a Command.
// The line has its terminator already stripped; a trailing CR from
// clients using \r\n endings is tolerated.
func Parse(line string) (*Command, error) {
	line = strings.TrimRight(line, "\r")

	verb, rest := cutToken(line)
	if verb == "" {
		return nil, errors.BadArguments("<COMMAND> [args]")
	}

	switch strings.ToUpper(verb) {
	case "LOGIN":
		user, rest := cutToken(rest)
		pass, extra := cutToken(rest)
		if user == "" || pass == "" || extra != "" {
			return nil, errors.BadArguments("LOGIN <username> <password>")
		}
		return &Command{Kind: KindLogin, User: user, Pass: pass}, nil

	case "LOGOUT":
		if rest != "" {
			return nil, errors.BadArguments("LOGOUT")
		}
		return &Command{Kind: KindLogout}, nil

	case "SET":
		return parseWrite(KindSet, "SET <table> <key> <json>", rest)

	case "UPDATE":
		return parseWrite(KindUpdate, "UPDATE <table> <key> <json>", rest)

	case "GET":
		table, key, err := parseTableKey("GET <table> <key>", rest)
		if err != nil {
			return nil, err
		}
		return &Command{Kind: KindGet, Table: table, Key: key}, nil

	case "DELETE":
		table, key, err := parseTableKey("DELETE <table> <key>", rest)
		if err != nil {
			return nil, err
		}
		return &Command{Kind: KindDelete, Table: table, Key: key}, nil

	case "QUERY":
		table, conds := cutToken(rest)
		if table == "" {
			return nil, errors.BadArguments("QUERY <table> [conditions...]")
		}
		return &Command{Kind: KindQuery, Table: table, Query: conds}, nil

	case "WHOAMI":
		return &Command{Kind: KindWhoami}, nil

	case "HELP":
		return &Command{Kind: KindHelp}, nil

	case "EXIT", "QUIT":
		return &Command{Kind: KindExit}, nil

	default:
		return nil, errors.UnknownCommand(verb)
	}
}

// parseWrite handles the shared SET/UPDATE shape: table, key, and a
// JSON payload spanning the rest of the line.
func parseWrite(kind Kind, usage, rest string) (*Command, error) {
	table, rest := cutToken(rest)
	key, payload := cutToken(rest)
	if table == "" || key == "" || payload == "" {
		return nil, errors.BadArguments(usage)
	}

	doc, err := document.Decode([]byte(payload))
	if err != nil {
		return nil, errors.BadJSON().WithCause(err)
	}
	return &Command{Kind: kind, Table: table, Key: key, Doc: doc}, nil
}

// parseTableKey handles the shared GET/DELETE shape.
func parseTableKey(usage, rest string) (string, string, error) {
	table, rest := cutToken(rest)
	key, extra := cutToken(rest)
	if table == "" || key == "" || extra != "" {
		return "", "", errors.BadArguments(usage)
	}
	return table, key, nil
}

// Verb returns the canonical verb name for a command kind, used for
// logging and metrics labels.
func (c *Command) Verb() string {
	switch c.Kind {
	case KindLogin:
		return "LOGIN"
	case KindLogout:
		return "LOGOUT"
	case KindSet:
		return "SET"
	case KindGet:
		return "GET"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindQuery:
		return "QUERY"
	case KindWhoami:
		return "WHOAMI"
	case KindHelp:
		return "HELP"
	case KindExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}
