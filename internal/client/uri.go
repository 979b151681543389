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

package client

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the Sharknado connection URI scheme.
const Scheme = "sharknado://"

// URI is a parsed sharknado:// connection string:
//
//	sharknado://<user>:<pass>@<host>:<port>[/<database>]
type URI struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
}

// Addr returns the host:port dial target.
func (u URI) Addr() string {
	return fmt.Sprintf("%s:%d", u.Host, u.Port)
}

// ParseURI parses a sharknado:// connection string.
func ParseURI(raw string) (URI, error) {
	if !strings.HasPrefix(raw, Scheme) {
		return URI{}, fmt.Errorf("URI must start with '%s'", Scheme)
	}

	body := raw[len(Scheme):]
	authPart, hostPart, ok := strings.Cut(body, "@")
	if !ok {
		return URI{}, fmt.Errorf("URI must contain username:password@host:port")
	}

	username, password, ok := strings.Cut(authPart, ":")
	if !ok || username == "" {
		return URI{}, fmt.Errorf("authentication must be in format username:password")
	}

	var database string
	if hp, db, found := strings.Cut(hostPart, "/"); found {
		hostPart, database = hp, db
	}

	host, portStr, ok := strings.Cut(hostPart, ":")
	if !ok || host == "" {
		return URI{}, fmt.Errorf("host must be in format host:port")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return URI{}, fmt.Errorf("port must be a valid number")
	}

	return URI{
		Username: username,
		Password: password,
		Host:     host,
		Port:     port,
		Database: database,
	}, nil
}
