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
Package server implements the TCP acceptor and the per-connection
session state machine.

Server Architecture Overview:
=============================

The server is a multi-goroutine TCP server. Each client connection is
processed in its own goroutine; within a connection, commands are
strictly sequential (read line, execute, write response).

Connection Lifecycle:
=====================

 1. Client connects via TCP
 2. Server spawns a goroutine running a fresh Session
 3. The session sends a one-line welcome prompting authentication
 4. Client sends newline-terminated commands
 5. The session answers each with one "OK:", "RESULT:", or "ERROR:" line
 6. The session ends on EOF, socket error, or EXIT

Shared State:
=============

All sessions share one storage engine and one user directory, injected
at construction. The acceptor itself holds no per-connection state
beyond connection counting for metrics.
*/
package server

import (
	"errors"
	"net"
	"sync"

	"sharknado/internal/logging"
	"sharknado/internal/metrics"
	"sharknado/internal/storage"
	"sharknado/internal/users"
)

// Package-level logger for the acceptor. Sessions use the "tcp"
// component so their output can be routed separately.
var log = logging.NewLogger("server")

// Server accepts TCP connections and hands each to a Session.
type Server struct {
	addr  string
	store *storage.Engine
	users *users.Directory

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
	stopCh   chan struct{}
}

// New creates a Server bound to addr once Start is called.
// The storage engine and user directory are shared across all sessions.
func New(addr string, store *storage.Engine, dir *users.Directory) *Server {
	return &Server{
		addr:   addr,
		store:  store,
		users:  dir,
		stopCh: make(chan struct{}),
	}
}

// Start binds the listen address and enters the accept loop.
// It blocks until Stop is called or the listener fails fatally.
// Individual accept errors are logged and do not stop the server.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Error("Failed to bind listen address", "address", s.addr, "error", err)
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Info("Listening for connections", "address", s.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				log.Info("Server stopped, exiting accept loop")
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				log.Error("Listener closed unexpectedly", "error", err)
				return err
			}
			// Usually transient (e.g. too many open files).
			log.Warn("Accept error", "error", err)
			continue
		}

		m := metrics.Get()
		m.TotalConnections.Add(1)
		m.ActiveConnections.Add(1)

		log.Debug("New connection accepted", "remote_addr", conn.RemoteAddr().String())
		go func() {
			defer m.ActiveConnections.Add(-1)
			newSession(conn, s.store, s.users).run()
		}()
	}
}

// Addr returns the bound listener address, or the configured address
// before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop closes the listener, causing Start to return.
// In-flight sessions run to completion on their own connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.stopCh)

	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
