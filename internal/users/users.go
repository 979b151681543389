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
Package users implements the persistent user directory.

The directory is a JSON document (users.json) mapping username to
{password, role, created_at}. It is loaded once at startup and written
out in full on every mutation. The directory is independent of the
operation log: user changes are not replayed through it.

Password Storage:
=================

Passwords are hashed with bcrypt before storage. bcrypt embeds a random
salt per hash and its comparison is constant-time, which prevents both
rainbow-table and timing attacks. The wire protocol still carries
cleartext credentials (LOGIN <user> <pass>); only the at-rest form is
hashed.

For compatibility with hand-edited users.json files, a stored password
that does not look like a bcrypt hash is compared as cleartext. Such
entries are upgraded to a hash the next time the password is updated.
*/
package users

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sharknado/internal/errors"
	"sharknado/internal/logging"
)

// Role is a user's privilege level.
type Role string

const (
	// RoleAdmin may manage other users.
	RoleAdmin Role = "admin"

	// RoleUser may only issue data operations.
	RoleUser Role = "user"
)

// ParseRole recognizes a role string case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(s) {
	case "admin":
		return RoleAdmin, true
	case "user":
		return RoleUser, true
	default:
		return "", false
	}
}

// DefaultAdminUsername and DefaultAdminPassword are the bootstrap
// credentials created when the directory starts out empty.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// bcryptCost is the work factor for password hashing. 10 balances
// login latency against brute-force resistance.
const bcryptCost = 10

// record is the on-disk shape of one user entry.
// The password field holds a bcrypt hash for entries created by this
// program, or cleartext for hand-edited legacy entries.
type record struct {
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Info is a read-only snapshot of one user, with the password omitted.
type Info struct {
	Username  string
	Role      Role
	CreatedAt string
}

// Directory is the in-memory user map with file-backed persistence.
//
// Thread Safety: all methods are safe for concurrent use. The directory
// has its own lock, independent of the storage engine's.
type Directory struct {
	path string
	mu   sync.RWMutex
	recs map[string]*record
}

var log = logging.NewLogger("users")

// Open loads the user directory from path, treating a missing file as
// an empty directory.
func Open(path string) (*Directory, error) {
	d := &Directory{path: path, recs: make(map[string]*record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, errors.IOFailure("read user directory", err)
	}

	if err := json.Unmarshal(data, &d.recs); err != nil {
		return nil, errors.IOFailure("parse user directory", err)
	}
	return d, nil
}

// persist writes the full directory back to disk.
// Callers must hold the exclusive lock.
func (d *Directory) persist() error {
	data, err := json.MarshalIndent(d.recs, "", "  ")
	if err != nil {
		return errors.IOFailure("encode user directory", err)
	}
	if err := os.WriteFile(d.path, data, 0o600); err != nil {
		return errors.IOFailure("write user directory", err)
	}
	return nil
}

// Create adds a new user. Fails with Conflict if the username is taken.
func (d *Directory) Create(username, password string, role Role) error {
	if username == "" || strings.ContainsAny(username, " \t") {
		return errors.InvalidValue("username", "must be non-empty without whitespace")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return errors.IOFailure("hash password", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.recs[username]; exists {
		return errors.Conflict("user")
	}

	d.recs[username] = &record{
		Password:  string(hash),
		Role:      role,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.persist(); err != nil {
		delete(d.recs, username)
		return err
	}

	log.Info("User created", "username", username, "role", role)
	return nil
}

// Update modifies a user's password or role.
// field must be "password" or "role"; anything else is BadField.
func (d *Directory) Update(username, field, value string) error {
	switch field {
	case "password", "role":
	default:
		return errors.BadField(field)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, exists := d.recs[username]
	if !exists {
		return errors.NotFound("user")
	}

	old := *rec
	switch field {
	case "password":
		hash, err := bcrypt.GenerateFromPassword([]byte(value), bcryptCost)
		if err != nil {
			return errors.IOFailure("hash password", err)
		}
		rec.Password = string(hash)
	case "role":
		role, ok := ParseRole(value)
		if !ok {
			return errors.InvalidValue("role", "valid roles: admin, user")
		}
		rec.Role = role
	}

	if err := d.persist(); err != nil {
		*rec = old
		return err
	}

	log.Info("User updated", "username", username, "field", field)
	return nil
}

// Delete removes a user. Fails with NotFound if the user is absent.
func (d *Directory) Delete(username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, exists := d.recs[username]
	if !exists {
		return errors.NotFound("user")
	}

	delete(d.recs, username)
	if err := d.persist(); err != nil {
		d.recs[username] = rec
		return err
	}

	log.Info("User deleted", "username", username)
	return nil
}

// Authenticate checks credentials and returns the user's role on match.
// The failure mode is the same for unknown users and wrong passwords.
func (d *Directory) Authenticate(username, password string) (Role, error) {
	d.mu.RLock()
	rec, exists := d.recs[username]
	d.mu.RUnlock()

	if !exists {
		// Burn the same bcrypt cost as a real comparison so response
		// timing does not reveal whether the username exists.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZdJK2jTcZ0V1PxYqE6O0yFyPMNqhW"), []byte(password))
		return "", errors.InvalidCredentials()
	}

	if isBcryptHash(rec.Password) {
		if bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
			return "", errors.InvalidCredentials()
		}
	} else if rec.Password != password {
		// Legacy cleartext entry from a hand-edited users.json.
		return "", errors.InvalidCredentials()
	}

	return rec.Role, nil
}

// isBcryptHash recognizes the standard bcrypt prefix family.
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// List returns a snapshot of all users sorted by username.
// Access control (admin only) is the caller's responsibility.
func (d *Directory) List() []Info {
	d.mu.RLock()
	defer d.mu.RUnlock()

	infos := make([]Info, 0, len(d.recs))
	for name, rec := range d.recs {
		infos = append(infos, Info{Username: name, Role: rec.Role, CreatedAt: rec.CreatedAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Username < infos[j].Username })
	return infos
}

// Count returns the number of registered users.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.recs)
}

// EnsureDefaultAdmin creates the bootstrap admin account when the
// directory is empty, so a fresh installation is immediately usable.
func (d *Directory) EnsureDefaultAdmin() error {
	if d.Count() > 0 {
		return nil
	}
	if err := d.Create(DefaultAdminUsername, DefaultAdminPassword, RoleAdmin); err != nil {
		return err
	}
	log.Warn("Created default admin user; change its password",
		"username", DefaultAdminUsername)
	return nil
}
