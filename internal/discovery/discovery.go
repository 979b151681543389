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
Package discovery advertises and discovers Sharknado servers on the
local network using mDNS (Bonjour/Avahi).

A running server advertises the "_sharknado._tcp" service with TXT
records naming its database. Clients can then locate servers without
knowing an address:

	sharknado --discover
*/
package discovery

import (
	"fmt"
	"time"

	"github.com/hashicorp/mdns"

	"sharknado/internal/logging"
)

// ServiceType is the mDNS service type for Sharknado servers.
const ServiceType = "_sharknado._tcp"

// DefaultTimeout is the default discovery window.
const DefaultTimeout = 5 * time.Second

var log = logging.NewLogger("discovery")

// Node is a server found via discovery.
type Node struct {
	Instance string
	Host     string
	Port     int
	Database string
}

// Addr returns the node's host:port form.
func (n Node) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Service is an active mDNS advertisement.
type Service struct {
	server *mdns.Server
}

// Advertise publishes this server on the local network.
// instance names the advertisement (typically the database name) and
// port is the TCP port clients should connect to.
func Advertise(instance, database string, port int) (*Service, error) {
	txt := []string{
		"database=" + database,
	}

	service, err := mdns.NewMDNSService(
		instance,    // instance name
		ServiceType, // service type
		"",          // domain (empty = .local)
		"",          // host name (empty = auto)
		port,
		nil, // IPs (nil = auto-detect)
		txt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Info("Service discovery started", "instance", instance, "port", port, "service_type", ServiceType)
	return &Service{server: server}, nil
}

// Shutdown stops the advertisement.
func (s *Service) Shutdown() {
	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
		log.Info("Service discovery stopped")
	}
}

// Discover finds Sharknado servers on the local network within timeout.
func Discover(timeout time.Duration) ([]Node, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	entriesCh := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []Node)

	go func() {
		var nodes []Node
		for entry := range entriesCh {
			nodes = append(nodes, parseEntry(entry))
		}
		done <- nodes
	}()

	params := &mdns.QueryParam{
		Service: ServiceType,
		Timeout: timeout,
		Entries: entriesCh,
	}
	err := mdns.Query(params)
	close(entriesCh)
	nodes := <-done
	if err != nil {
		return nil, fmt.Errorf("mDNS query failed: %w", err)
	}
	return nodes, nil
}

// parseEntry converts an mDNS answer into a Node.
func parseEntry(entry *mdns.ServiceEntry) Node {
	node := Node{
		Instance: entry.Name,
		Host:     entry.Host,
		Port:     entry.Port,
	}
	if entry.AddrV4 != nil {
		node.Host = entry.AddrV4.String()
	}
	for _, field := range entry.InfoFields {
		if len(field) > 9 && field[:9] == "database=" {
			node.Database = field[9:]
		}
	}
	return node
}
