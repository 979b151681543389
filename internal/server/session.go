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

package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"sharknado/internal/errors"
	"sharknado/internal/logging"
	"sharknado/internal/metrics"
	"sharknado/internal/protocol"
	"sharknado/internal/query"
	"sharknado/internal/storage"
	"sharknado/internal/users"
)

// tcpLog is the session logger; the "tcp" component is routed
// independently from the acceptor's "server" component.
var tcpLog = logging.NewLogger("tcp")

// helpLine is the single-line HELP response. Responses are one line per
// request, so the command summary is pipe-separated rather than a block.
const helpLine = "Commands: LOGIN <user> <pass> | LOGOUT | SET <table> <key> <json> | " +
	"GET <table> <key> | UPDATE <table> <key> <json> | DELETE <table> <key> | " +
	"QUERY <table> [<field> <op> <value>]... [LIMIT <n>] | WHOAMI | HELP | EXIT"

// session is the per-connection state machine.
//
// The machine has two states, UNAUTH and AUTH, represented by the
// authenticated flag. In UNAUTH every command except LOGIN is rejected
// with "Authentication required"; a successful LOGIN transitions to
// AUTH and records the identity. LOGIN in AUTH re-authenticates and,
// on success, replaces the identity.
type session struct {
	conn  net.Conn
	store *storage.Engine
	users *users.Directory
	log   *logging.ContextLogger

	authenticated bool
	username      string
	role          users.Role
}

func newSession(conn net.Conn, store *storage.Engine, dir *users.Directory) *session {
	return &session{
		conn:  conn,
		store: store,
		users: dir,
		log:   tcpLog.With("remote_addr", conn.RemoteAddr().String()),
	}
}

// run processes the connection until EOF, a socket error, or EXIT.
// No rollback happens on disconnect: accepted mutations are already
// durable in the operation log.
func (s *session) run() {
	start := time.Now()
	s.log.Info("Session started")
	defer func() {
		s.conn.Close()
		s.log.Info("Session ended", "duration", time.Since(start), "username", s.username)
	}()

	// Welcome line: tells interactive clients how to proceed before
	// the first command arrives.
	if !s.reply(protocol.StatusOK, "Sharknado ready - authenticate with: LOGIN <username> <password>") {
		return
	}

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line == "\r" {
			continue
		}

		status, msg, closing := s.dispatch(line)
		if !s.reply(status, msg) {
			return
		}
		if closing {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.log.Debug("Connection read error", "error", err)
	}
}

// reply writes one framed response line. Returns false when the socket
// write fails, which terminates the session.
func (s *session) reply(status, msg string) bool {
	if _, err := fmt.Fprintf(s.conn, "%s: %s\n", status, msg); err != nil {
		s.log.Debug("Failed to write response", "error", err)
		return false
	}
	return true
}

// dispatch parses one request line and executes it against the current
// session state. It returns the response status and message, and
// whether the session should close afterwards.
func (s *session) dispatch(line string) (status, msg string, closing bool) {
	m := metrics.Get()

	cmd, err := protocol.Parse(line)
	if err != nil {
		m.CommandsFailed.Add(1)
		// Before authentication the session reveals nothing about the
		// command surface: unparseable input other than a malformed
		// LOGIN attempt is answered like any other unauthorized command.
		if !s.authenticated && !isLoginAttempt(line) {
			return protocol.StatusError, errors.AuthRequired().UserMessage(), false
		}
		return protocol.StatusError, errors.FormatError(err), false
	}

	if cmd.Kind == protocol.KindLogin {
		return s.handleLogin(cmd)
	}

	if !s.authenticated {
		m.CommandsFailed.Add(1)
		return protocol.StatusError, errors.AuthRequired().UserMessage(), false
	}

	status, msg, closing = s.handleData(cmd)
	if status == protocol.StatusError {
		m.CommandsFailed.Add(1)
	} else {
		m.RecordCommand(cmd.Verb())
	}
	return status, msg, closing
}

// isLoginAttempt reports whether the request line starts with the
// LOGIN verb, regardless of whether the rest of it parses.
func isLoginAttempt(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], "LOGIN")
}

// handleLogin processes LOGIN in either state. A failed re-login keeps
// the existing identity.
func (s *session) handleLogin(cmd *protocol.Command) (string, string, bool) {
	role, err := s.users.Authenticate(cmd.User, cmd.Pass)
	if err != nil {
		metrics.Get().CommandsFailed.Add(1)
		s.log.Warn("Authentication failed", "username", cmd.User)
		return protocol.StatusError, errors.FormatError(err), false
	}

	s.authenticated = true
	s.username = cmd.User
	s.role = role
	metrics.Get().RecordCommand(cmd.Verb())
	s.log.Info("User logged in", "username", cmd.User, "role", role)
	return protocol.StatusOK, "Logged in as " + cmd.User, false
}

// handleData executes an authenticated command.
func (s *session) handleData(cmd *protocol.Command) (string, string, bool) {
	switch cmd.Kind {
	case protocol.KindLogout:
		s.log.Info("User logged out", "username", s.username)
		s.authenticated = false
		s.username = ""
		s.role = ""
		return protocol.StatusOK, "Logged out", false

	case protocol.KindSet:
		if err := s.store.Set(cmd.Table, cmd.Key, cmd.Doc); err != nil {
			return protocol.StatusError, errors.FormatError(err), false
		}
		s.log.Debug("SET", "table", cmd.Table, "key", cmd.Key)
		s.bumpLogSize()
		return protocol.StatusOK, fmt.Sprintf("Stored %s/%s", cmd.Table, cmd.Key), false

	case protocol.KindGet:
		doc, err := s.store.Get(cmd.Table, cmd.Key)
		if err != nil {
			return protocol.StatusError, errors.FormatError(err), false
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return protocol.StatusError, errors.FormatError(errors.IOFailure("encode document", err)), false
		}
		return protocol.StatusResult, string(data), false

	case protocol.KindUpdate:
		if err := s.store.Update(cmd.Table, cmd.Key, cmd.Doc); err != nil {
			return protocol.StatusError, errors.FormatError(err), false
		}
		s.log.Debug("UPDATE", "table", cmd.Table, "key", cmd.Key)
		s.bumpLogSize()
		return protocol.StatusOK, fmt.Sprintf("Updated %s/%s", cmd.Table, cmd.Key), false

	case protocol.KindDelete:
		if err := s.store.Delete(cmd.Table, cmd.Key); err != nil {
			return protocol.StatusError, errors.FormatError(err), false
		}
		s.log.Debug("DELETE", "table", cmd.Table, "key", cmd.Key)
		s.bumpLogSize()
		return protocol.StatusOK, fmt.Sprintf("Deleted %s/%s", cmd.Table, cmd.Key), false

	case protocol.KindQuery:
		return s.handleQuery(cmd)

	case protocol.KindWhoami:
		return protocol.StatusOK, fmt.Sprintf("Logged in as %s (role: %s)", s.username, s.role), false

	case protocol.KindHelp:
		return protocol.StatusOK, helpLine, false

	case protocol.KindExit:
		return protocol.StatusOK, "Goodbye", true

	default:
		return protocol.StatusError, errors.UnknownCommand(cmd.Verb()).UserMessage(), false
	}
}

// handleQuery parses the condition string, filters the table, and
// renders the matches as one JSON array of documents.
func (s *session) handleQuery(cmd *protocol.Command) (string, string, bool) {
	conds, limit, err := query.Parse(cmd.Query)
	if err != nil {
		return protocol.StatusError, errors.FormatError(err), false
	}

	entries, err := s.store.Query(cmd.Table, func(doc any) bool {
		return query.Matches(doc, conds)
	})
	if err != nil {
		return protocol.StatusError, errors.FormatError(err), false
	}

	if limit != query.NoLimit && len(entries) > limit {
		entries = entries[:limit]
	}

	docs := make([]any, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e.Doc)
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return protocol.StatusError, errors.FormatError(errors.IOFailure("encode result", err)), false
	}

	s.log.Debug("QUERY", "table", cmd.Table, "conditions", len(conds), "results", len(entries))
	return protocol.StatusResult, string(data), false
}

// bumpLogSize refreshes the log size gauge after a mutation.
func (s *session) bumpLogSize() {
	m := metrics.Get()
	m.LogAppends.Add(1)
	if size, err := s.store.LogSize(); err == nil {
		m.LogSize.Store(size)
	}
}
