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
Package metrics provides Prometheus-compatible counters for the server.

Exposed at /metrics on the admin HTTP port in Prometheus text format:

	sharknado_commands_total{verb="SET"} 1234
	sharknado_commands_failed_total 12
	sharknado_active_connections 4
	sharknado_connections_total 987
	sharknado_log_appends_total 1180
	sharknado_log_size_bytes 524288
*/
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics holds all server counters. The zero value is ready to use.
type Metrics struct {
	// Command metrics
	CommandsFailed atomic.Uint64

	// Connection metrics
	ActiveConnections atomic.Int64
	TotalConnections  atomic.Uint64

	// Storage metrics
	LogAppends atomic.Uint64
	LogSize    atomic.Int64

	// commandsByVerb counts completed commands per verb.
	mu             sync.Mutex
	commandsByVerb map[string]uint64
}

// Global metrics instance shared by the server and the admin endpoint.
var global = &Metrics{}

// Get returns the global metrics instance.
func Get() *Metrics {
	return global
}

// RecordCommand counts one completed command for the given verb.
func (m *Metrics) RecordCommand(verb string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commandsByVerb == nil {
		m.commandsByVerb = make(map[string]uint64)
	}
	m.commandsByVerb[verb]++
}

// CommandCount returns the completed-command count for a verb.
func (m *Metrics) CommandCount(verb string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandsByVerb[verb]
}

// WritePrometheus renders all metrics in Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.mu.Lock()
	verbs := make([]string, 0, len(m.commandsByVerb))
	for verb := range m.commandsByVerb {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)
	counts := make(map[string]uint64, len(verbs))
	for _, verb := range verbs {
		counts[verb] = m.commandsByVerb[verb]
	}
	m.mu.Unlock()

	fmt.Fprintln(w, "# HELP sharknado_commands_total Commands completed, by verb.")
	fmt.Fprintln(w, "# TYPE sharknado_commands_total counter")
	for _, verb := range verbs {
		fmt.Fprintf(w, "sharknado_commands_total{verb=%q} %d\n", verb, counts[verb])
	}

	fmt.Fprintln(w, "# HELP sharknado_commands_failed_total Commands that returned an error.")
	fmt.Fprintln(w, "# TYPE sharknado_commands_failed_total counter")
	fmt.Fprintf(w, "sharknado_commands_failed_total %d\n", m.CommandsFailed.Load())

	fmt.Fprintln(w, "# HELP sharknado_active_connections Currently open client connections.")
	fmt.Fprintln(w, "# TYPE sharknado_active_connections gauge")
	fmt.Fprintf(w, "sharknado_active_connections %d\n", m.ActiveConnections.Load())

	fmt.Fprintln(w, "# HELP sharknado_connections_total Connections accepted since start.")
	fmt.Fprintln(w, "# TYPE sharknado_connections_total counter")
	fmt.Fprintf(w, "sharknado_connections_total %d\n", m.TotalConnections.Load())

	fmt.Fprintln(w, "# HELP sharknado_log_appends_total Records appended to the operation log.")
	fmt.Fprintln(w, "# TYPE sharknado_log_appends_total counter")
	fmt.Fprintf(w, "sharknado_log_appends_total %d\n", m.LogAppends.Load())

	fmt.Fprintln(w, "# HELP sharknado_log_size_bytes Operation log size on disk.")
	fmt.Fprintln(w, "# TYPE sharknado_log_size_bytes gauge")
	fmt.Fprintf(w, "sharknado_log_size_bytes %d\n", m.LogSize.Load())
}

// Handler returns an http.Handler serving the Prometheus endpoint.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.WritePrometheus(w)
	})
}
