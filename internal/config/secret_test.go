/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"testing"

	"beziered/internal/storage"
	"github.com/zalando/go-keyring"
)

func TestJournalPasswordKeyring(t *testing.T) {
	keyring.MockInit()
	if pw, err := JournalPassword(); err != nil || pw != "" {
		t.Fatalf("empty keyring = %q, %v", pw, err)
	}
	if err := SetJournalPassword("s3cret"); err != nil {
		t.Fatalf("SetJournalPassword: %v", err)
	}
	if pw, _ := JournalPassword(); pw != "s3cret" {
		t.Fatalf("JournalPassword() = %q", pw)
	}
	if err := SetJournalPassword(""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := SetJournalPassword(""); err != nil {
		t.Fatalf("clearing twice: %v", err)
	}
	if pw, _ := JournalPassword(); pw != "" {
		t.Fatalf("password survived clear: %q", pw)
	}
}

func TestWithPassword(t *testing.T) {
	cases := []struct{ dsn, pw, want string }{
		{"postgres://bze@db:5432/curves", "pw", "postgres://bze:pw@db:5432/curves"},
		{"postgres://bze:own@db/curves", "pw", "postgres://bze:own@db/curves"},
		{"postgres://db/curves", "pw", "postgres://db/curves"},
		{"host=db user=bze dbname=curves", "it's", `host=db user=bze dbname=curves password='it\'s'`},
		{"host=db password=own", "pw", "host=db password=own"},
		{"host=db", "", "host=db"},
	}
	for _, c := range cases {
		if got := withPassword(c.dsn, c.pw); got != c.want {
			t.Errorf("withPassword(%q) = %q, want %q", c.dsn, got, c.want)
		}
	}
}

func TestStorageConfigUsesKeyring(t *testing.T) {
	keyring.MockInit()
	if err := SetJournalPassword("pw"); err != nil {
		t.Fatal(err)
	}
	j := JournalConfig{Driver: storage.DriverPostgres, DSN: "postgres://bze@db/curves"}
	if got := j.StorageConfig().DSN; got != "postgres://bze:pw@db/curves" {
		t.Fatalf("DSN = %q", got)
	}
	// sqlite never consults the keyring
	if got := (JournalConfig{Driver: storage.DriverSQLite}).StorageConfig(); got.DSN != "" {
		t.Fatalf("sqlite DSN = %q", got.DSN)
	}
}
