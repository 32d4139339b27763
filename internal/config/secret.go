/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService         = "beziered"
	keyringJournalPassword = "journal_password"
)

// JournalPassword returns the postgres journal password kept in the OS
// keyring, or "" when none is stored.
func JournalPassword() (string, error) {
	pw, err := keyring.Get(keyringService, keyringJournalPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read journal password: %w", err)
	}
	return pw, nil
}

// SetJournalPassword stores pw in the OS keyring. An empty pw removes it.
func SetJournalPassword(pw string) error {
	if pw == "" {
		if err := keyring.Delete(keyringService, keyringJournalPassword); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete journal password: %w", err)
		}
		return nil
	}
	if err := keyring.Set(keyringService, keyringJournalPassword, pw); err != nil {
		return fmt.Errorf("store journal password: %w", err)
	}
	return nil
}

// withPassword adds pw to a postgres DSN that carries none. Both URL and
// keyword/value DSNs are understood.
func withPassword(dsn, pw string) string {
	if pw == "" || dsn == "" {
		return dsn
	}
	if u, err := url.Parse(dsn); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		if u.User == nil {
			return dsn
		}
		if _, ok := u.User.Password(); ok {
			return dsn
		}
		u.User = url.UserPassword(u.User.Username(), pw)
		return u.String()
	}
	for _, f := range strings.Fields(dsn) {
		if strings.HasPrefix(f, "password=") {
			return dsn
		}
	}
	quoted := "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(pw) + "'"
	return dsn + " password=" + quoted
}
